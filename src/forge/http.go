package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// apiClient is the JSON-over-HTTP plumbing shared by the REST forges.
type apiClient struct {
	provider Provider
	http     *http.Client
	auth     string // full Authorization header value
	accept   string
}

func (c *apiClient) client() *http.Client {
	if c.http != nil {
		return c.http
	}
	return http.DefaultClient
}

func (c *apiClient) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}
	if c.accept != "" {
		req.Header.Set("Accept", c.accept)
	}
	return req, nil
}

func (c *apiClient) doJSON(ctx context.Context, method, url string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// do sends req and decodes a 2xx body into result. Anything else becomes
// an *APIError.
func (c *apiClient) do(req *http.Request, result interface{}) error {
	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("%s API %s %s: %w", c.provider, req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s API %s %s: reading response: %w", c.provider, req.Method, req.URL.Redacted(), err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			Provider:   c.provider,
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
		}
		var parsed struct {
			Message string            `json:"message"`
			Errors  []ValidationError `json:"errors"`
		}
		if json.Unmarshal(respBody, &parsed) == nil {
			apiErr.Message = parsed.Message
			apiErr.Errors = parsed.Errors
		} else {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		return json.Unmarshal(respBody, result)
	}
	return nil
}
