package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

type apiErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 90 * time.Second}
}

// postJSON sends the request with provider auth headers and decodes the
// response into out. Non-2xx statuses and transport failures come back as
// *Error with the mapped kind.
func postJSON(ctx context.Context, client *http.Client, url, apiKey, org, project string, body any, out any) error {
	if client == nil {
		return errors.New("ai: http client is nil")
	}
	if strings.TrimSpace(apiKey) == "" {
		return &Error{Kind: KindInvalidAPIKey, Message: "api key is required"}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if org != "" {
		req.Header.Set("OpenAI-Organization", org)
	}
	if project != "" {
		req.Header.Set("OpenAI-Project", project)
	}

	resp, err := client.Do(req)
	if err != nil {
		return wrapTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(raw))
		var decoded apiErrorBody
		if json.Unmarshal(raw, &decoded) == nil && decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return &Error{Kind: kindFromStatus(resp.StatusCode), Status: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapTransportErr(err)
	}
	return nil
}
