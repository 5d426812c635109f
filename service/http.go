package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/googleapi"
)

// DoJSON sends the (optional) payload as JSON and decodes the response into out (if not nil).
// A non-2xx response is returned as a *googleapi.Error so that Temporary() can classify it.
func DoJSON(ctx context.Context, client *http.Client, method, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("DoJSON.Marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("DoJSON.NewRequest: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("DoJSON: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("DoJSON.ReadAll: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &googleapi.Error{Code: resp.StatusCode, Message: resp.Status, Body: string(respBody)}
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("DoJSON.Unmarshal: %w (response: %s)", err, respBody)
		}
	}
	return nil
}
