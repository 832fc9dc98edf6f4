package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UpstreamError conserva el status HTTP del proveedor para propagarlo
// tal cual al cliente.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("odds provider http %d", e.StatusCode)
}

// Client consulta la lista de eventos con cuotas de un deporte.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchOdds trae el payload crudo de todos los bookmakers para un deporte.
// Se retorna el JSON sin procesar: el cache guarda el payload completo y el
// filtrado por fechas/banda ocurre en memoria.
func (c *Client) FetchOdds(ctx context.Context, sport string) ([]byte, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("odds api key not configured")
	}

	q := url.Values{}
	q.Set("regions", "eu")
	q.Set("markets", "h2h,spreads")
	q.Set("oddsFormat", "decimal")
	q.Set("apiKey", c.APIKey)
	endpoint := fmt.Sprintf("%s/v4/sports/%s/odds/?%s", c.BaseURL, url.PathEscape(sport), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: res.StatusCode}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}
