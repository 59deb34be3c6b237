package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func respServer(t *testing.T, status int, body string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			var decoded map[string]any
			if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
				t.Errorf("decode request: %v", err)
			}
			*capture = decoded
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func testResponsesClient(srv *httptest.Server) *ResponsesClient {
	c := NewResponsesClient(srv.URL, "test-key", "org-1", "proj-1")
	c.Client = srv.Client()
	return c
}

const okResponsesBody = `{
	"id": "resp_123", "model": "gpt-4o-mini", "status": "completed",
	"output": [{"type": "message", "content": [{"type": "output_text", "text": "hi there"}]}],
	"usage": {"total_tokens": 42}
}`

func TestResponses_Normalization(t *testing.T) {
	var captured map[string]any
	srv := respServer(t, http.StatusOK, okResponsesBody, &captured)
	defer srv.Close()

	c := testResponsesClient(srv)
	res, err := c.Generate(context.Background(), Request{
		Engine:      "gpt-4o-mini",
		Instruction: "be brief",
		Context: []Turn{
			{Role: "user", Content: "q1"},
			{Role: "assistant", Content: "a1"},
		},
		UserMessage: "q2",
		Temperature: 1.2,
		MaxTokens:   100,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Text != "hi there" || res.ResponseID != "resp_123" || res.TotalTokens != 42 {
		t.Fatalf("unexpected result: %+v", res)
	}

	input := captured["input"].([]any)
	if len(input) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(input))
	}
	first := input[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("first segment must be system, got %v", first["role"])
	}
	// assistant context rides as output_text, user context as input_text
	assistantSeg := input[2].(map[string]any)
	content := assistantSeg["content"].([]any)[0].(map[string]any)
	if content["type"] != "output_text" {
		t.Fatalf("assistant segment type: %v", content["type"])
	}
	if _, ok := captured["temperature"]; !ok {
		t.Fatalf("expected temperature for a non-reasoning engine")
	}
}

func TestResponses_TemperatureGatedForReasoningEngines(t *testing.T) {
	var captured map[string]any
	srv := respServer(t, http.StatusOK, okResponsesBody, &captured)
	defer srv.Close()

	c := testResponsesClient(srv)
	_, err := c.Generate(context.Background(), Request{
		Engine:      "o1-mini",
		UserMessage: "hi",
		Temperature: 1.5,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, ok := captured["temperature"]; ok {
		t.Fatalf("reasoning engine must never receive a temperature")
	}
}

func TestResponses_DefaultTemperatureWhenUnset(t *testing.T) {
	var captured map[string]any
	srv := respServer(t, http.StatusOK, okResponsesBody, &captured)
	defer srv.Close()

	_, err := testResponsesClient(srv).Generate(context.Background(), Request{
		Engine:      "gpt-4o-mini",
		UserMessage: "hi",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// a non-reasoning engine always gets a temperature, even when the
	// caller left it unset
	temp, ok := captured["temperature"].(float64)
	if !ok {
		t.Fatalf("temperature missing from request: %v", captured)
	}
	if temp != 1.0 {
		t.Fatalf("expected the default temperature, got %v", temp)
	}
}

func TestResponses_IncompleteWithPartialTextIsSuccess(t *testing.T) {
	body := `{
		"id": "resp_p", "model": "m", "status": "incomplete",
		"output": [{"type": "message", "content": [{"type": "output_text", "text": "partial answer"}]}],
		"usage": {"total_tokens": 7}
	}`
	srv := respServer(t, http.StatusOK, body, nil)
	defer srv.Close()

	res, err := testResponsesClient(srv).Generate(context.Background(), Request{Engine: "m", UserMessage: "q"})
	if err != nil {
		t.Fatalf("partial text must not be discarded: %v", err)
	}
	if res.Text != "partial answer" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
}

func TestResponses_EmptyCases(t *testing.T) {
	cases := map[string]string{
		"incomplete no text": `{"id": "r", "status": "incomplete", "output": []}`,
		"reasoning only":     `{"id": "r", "status": "completed", "output": [{"type": "reasoning", "content": []}]}`,
		"no message output":  `{"id": "r", "status": "completed", "output": []}`,
	}
	for name, body := range cases {
		srv := respServer(t, http.StatusOK, body, nil)
		_, err := testResponsesClient(srv).Generate(context.Background(), Request{Engine: "m", UserMessage: "q"})
		srv.Close()
		if !IsKind(err, KindEmptyResponse) {
			t.Fatalf("%s: expected empty-response error, got %v", name, err)
		}
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindInvalidAPIKey},
		{http.StatusTooManyRequests, KindRateLimitExceeded},
		{http.StatusPaymentRequired, KindInsufficientFunds},
		{http.StatusBadRequest, KindInvalidRequestFormat},
		{http.StatusNotFound, KindModelNotFound},
		{http.StatusRequestEntityTooLarge, KindTokenLimitExceeded},
		{http.StatusServiceUnavailable, KindAPITimeout},
		{http.StatusInternalServerError, KindAPICallError},
	}
	for _, tc := range cases {
		srv := respServer(t, tc.status, `{"error": {"message": "nope"}}`, nil)
		_, err := testResponsesClient(srv).Generate(context.Background(), Request{Engine: "m", UserMessage: "q"})
		srv.Close()
		if !IsKind(err, tc.kind) {
			t.Fatalf("status %d: expected %s, got %v", tc.status, tc.kind, err)
		}
	}
}

func TestCancellationMapsToTimeout(t *testing.T) {
	srv := respServer(t, http.StatusOK, okResponsesBody, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testResponsesClient(srv).Generate(ctx, Request{Engine: "m", UserMessage: "q"})
	if !IsKind(err, KindAPITimeout) {
		t.Fatalf("expected timeout kind, got %v", err)
	}
}

func TestChatCompletions_RoundTrip(t *testing.T) {
	var captured map[string]any
	body := `{
		"id": "chatcmpl-1", "model": "gpt-4o",
		"choices": [{"message": {"role": "assistant", "content": "flat reply"}}],
		"usage": {"total_tokens": 12}
	}`
	srv := respServer(t, http.StatusOK, body, &captured)
	defer srv.Close()

	c := NewChatCompletionsClient(srv.URL, "test-key", "", "")
	c.Client = srv.Client()

	res, err := c.Generate(context.Background(), Request{
		Engine:      "gpt-4o",
		Instruction: "be brief",
		Context:     []Turn{{Role: "assistant", Content: "a1"}},
		UserMessage: "q",
		Temperature: 0.5,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Text != "flat reply" || res.TotalTokens != 12 {
		t.Fatalf("unexpected result: %+v", res)
	}

	msgs := captured["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].(map[string]any)["role"] != "system" {
		t.Fatalf("first message must be system")
	}
	if _, ok := captured["temperature"]; !ok {
		t.Fatalf("expected temperature in flat shape")
	}
}

func TestChatCompletions_DefaultTemperatureWhenUnset(t *testing.T) {
	var captured map[string]any
	body := `{"choices": [{"message": {"content": "ok"}}]}`
	srv := respServer(t, http.StatusOK, body, &captured)
	defer srv.Close()

	c := NewChatCompletionsClient(srv.URL, "test-key", "", "")
	c.Client = srv.Client()
	if _, err := c.Generate(context.Background(), Request{Engine: "gpt-4o", UserMessage: "hi"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	temp, ok := captured["temperature"].(float64)
	if !ok || temp != 1.0 {
		t.Fatalf("expected the default temperature, got %v (present=%v)", temp, ok)
	}
}

func TestChatCompletions_EmptyContent(t *testing.T) {
	srv := respServer(t, http.StatusOK, `{"choices": [{"message": {"content": "   "}}]}`, nil)
	defer srv.Close()

	c := NewChatCompletionsClient(srv.URL, "test-key", "", "")
	c.Client = srv.Client()
	_, err := c.Generate(context.Background(), Request{Engine: "m", UserMessage: "q"})
	if !IsKind(err, KindEmptyResponse) {
		t.Fatalf("expected empty-response error, got %v", err)
	}
}

func TestIsReasoningEngine(t *testing.T) {
	for engine, want := range map[string]bool{
		"o1-mini":     true,
		"o3":          true,
		"gpt-5-turbo": true,
		"gpt-4o":      false,
		"llama3":      false,
	} {
		if got := IsReasoningEngine(engine); got != want {
			t.Fatalf("%s: expected %v", engine, want)
		}
	}
}
