package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ResponsesClient speaks the structured-turn responses API: a flat array of
// role-tagged segments, assistant context as output_text, everything else as
// input_text.
type ResponsesClient struct {
	BaseURL string
	APIKey  string
	Org     string
	Project string
	Client  *http.Client
}

func NewResponsesClient(baseURL, apiKey, org, project string) *ResponsesClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &ResponsesClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Org:     org,
		Project: project,
		Client:  newHTTPClient(),
	}
}

type respContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type respSegment struct {
	Role    string        `json:"role"`
	Content []respContent `json:"content"`
}

type responsesReq struct {
	Model           string        `json:"model"`
	Input           []respSegment `json:"input"`
	MaxOutputTokens int           `json:"max_output_tokens,omitempty"`
	Temperature     *float64      `json:"temperature,omitempty"`
}

type responsesResp struct {
	ID     string `json:"id"`
	Model  string `json:"model"`
	Status string `json:"status"`
	Output []struct {
		Type    string        `json:"type"`
		Content []respContent `json:"content"`
	} `json:"output"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func segment(role, contentType, text string) respSegment {
	return respSegment{Role: role, Content: []respContent{{Type: contentType, Text: text}}}
}

func (c *ResponsesClient) Generate(ctx context.Context, req Request) (*Result, error) {
	input := make([]respSegment, 0, len(req.Context)+2)
	if req.Instruction != "" {
		input = append(input, segment("system", "input_text", req.Instruction))
	}
	for _, t := range req.Context {
		if t.Role == "assistant" {
			input = append(input, segment("assistant", "output_text", t.Content))
		} else {
			input = append(input, segment("user", "input_text", t.Content))
		}
	}
	input = append(input, segment("user", "input_text", req.UserMessage))

	body := responsesReq{
		Model:           req.Engine,
		Input:           input,
		MaxOutputTokens: req.MaxTokens,
	}
	body.Temperature = requestTemperature(req)

	url := fmt.Sprintf("%s/responses", strings.TrimRight(c.BaseURL, "/"))
	var decoded responsesResp
	if err := postJSON(ctx, c.Client, url, c.APIKey, c.Org, c.Project, body, &decoded); err != nil {
		return nil, err
	}
	return normalizeResponses(&decoded)
}

// normalizeResponses extracts the first message-typed output's first
// output_text block. Partial text from an incomplete response still counts
// as success; a reasoning-only response does not.
func normalizeResponses(resp *responsesResp) (*Result, error) {
	var text string
	sawReasoning := false
	for _, out := range resp.Output {
		switch out.Type {
		case "message":
			for _, c := range out.Content {
				if c.Type == "output_text" {
					text = c.Text
					break
				}
			}
		case "reasoning":
			sawReasoning = true
		}
		if text != "" {
			break
		}
	}

	if strings.TrimSpace(text) == "" {
		msg := "no message output"
		if sawReasoning {
			msg = "reasoning output only"
		}
		if resp.Status == "incomplete" {
			msg = "incomplete response with no text"
		}
		return nil, &Error{Kind: KindEmptyResponse, Message: msg}
	}

	return &Result{
		Text:        text,
		ResponseID:  resp.ID,
		Model:       resp.Model,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}
