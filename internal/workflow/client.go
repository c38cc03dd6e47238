package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appErrors "github.com/unclebandit/prospecting-dashboard/internal/errors"
)

// Payload is the body the prospecting workflows expect.
type Payload struct {
	TipoEmpresa string `json:"tipoEmpresa"`
	Estado      string `json:"estado"`
	Cidade      string `json:"cidade"`
}

// Client posts JSON to workflow webhooks. Calls are never retried.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Trigger starts the workflow for kind at url. Any transport error or non-2xx
// answer comes back as *appErrors.WorkflowError.
func (c *Client) Trigger(ctx context.Context, kind, url string, p Payload) error {
	status, err := c.post(ctx, url, p)
	if err != nil {
		return &appErrors.WorkflowError{Kind: kind, Err: err}
	}
	if status < 200 || status > 299 {
		return &appErrors.WorkflowError{Kind: kind, StatusCode: status}
	}
	return nil
}

// Notify delivers an arbitrary JSON body, used for the control webhook.
func (c *Client) Notify(ctx context.Context, url string, body any) error {
	status, err := c.post(ctx, url, body)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("control webhook: status %d", status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, body any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	return resp.StatusCode, nil
}
