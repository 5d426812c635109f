package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"
)

// GetBodyRetry: simple GET with N retries in case of temporary errors
func GetBodyRetry(ctx context.Context, url string, nbRetries int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	return GetBodyRetryReq(http.DefaultClient, req, nbRetries)
}

// GetBodyRetryReq executes the request with N retries in case of temporary errors (network, 5xx, 429)
func GetBodyRetryReq(client *http.Client, req *http.Request, nbRetries int) ([]byte, error) {
	var e *neturl.Error
	var body []byte
	var err error
	var resp *http.Response

	for i := range nbRetries + 1 {
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(((1 << i) - 1) * time.Second): // Exponential backoff, starting at 0
		}
		resp, err = client.Do(req)
		if err != nil {
			if !errors.As(err, &e) || !Temporary(err) {
				return nil, err
			}
			continue
		}
		body, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("%s: %s", resp.Status, body)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, err
			}
			continue
		}
		if err == nil {
			return body, nil
		}
	}
	return nil, err
}
