package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client habla con el API de object storage (estilo Supabase Storage):
// subida binaria por path y generación de URLs firmadas de lectura.
type Client struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	HTTP       *http.Client
}

func New(baseURL, serviceKey, bucket string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		ServiceKey: serviceKey,
		Bucket:     bucket,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Upload sube un objeto al bucket con upsert habilitado.
func (c *Client) Upload(ctx context.Context, path, contentType string, data []byte) error {
	url := fmt.Sprintf("%s/object/%s/%s", c.BaseURL, c.Bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("storage upload http %d", res.StatusCode)
	}
	return nil
}

// SignURL genera una URL firmada de lectura para un objeto privado.
func (c *Client) SignURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	body, _ := json.Marshal(map[string]any{"expiresIn": int(ttl.Seconds())})
	url := fmt.Sprintf("%s/object/sign/%s/%s", c.BaseURL, c.Bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return "", fmt.Errorf("storage sign http %d", res.StatusCode)
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("storage sign: empty signed url")
	}
	return c.BaseURL + out.SignedURL, nil
}
