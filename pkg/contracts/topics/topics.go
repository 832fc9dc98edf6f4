package topics

const (
	// Apuestas
	BetSubmitted = "bet_submitted"

	// Ventanas (fechas de la polla)
	WindowFinished = "window_finished"

	// DLQs
	BetSubmittedDLQ = "bet_submitted_dlq"
)
