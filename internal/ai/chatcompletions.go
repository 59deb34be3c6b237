package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ChatCompletionsClient speaks the classic {role, content} messages API.
type ChatCompletionsClient struct {
	BaseURL string
	APIKey  string
	Org     string
	Project string
	Client  *http.Client
}

func NewChatCompletionsClient(baseURL, apiKey, org, project string) *ChatCompletionsClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &ChatCompletionsClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Org:     org,
		Project: project,
		Client:  newHTTPClient(),
	}
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsReq struct {
	Model       string    `json:"model"`
	Messages    []chatMsg `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatCompletionsResp struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMsg `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *ChatCompletionsClient) Generate(ctx context.Context, req Request) (*Result, error) {
	msgs := make([]chatMsg, 0, len(req.Context)+2)
	if req.Instruction != "" {
		msgs = append(msgs, chatMsg{Role: "system", Content: req.Instruction})
	}
	for _, t := range req.Context {
		role := t.Role
		if role != "assistant" {
			role = "user"
		}
		msgs = append(msgs, chatMsg{Role: role, Content: t.Content})
	}
	msgs = append(msgs, chatMsg{Role: "user", Content: req.UserMessage})

	body := chatCompletionsReq{
		Model:     req.Engine,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
	}
	body.Temperature = requestTemperature(req)

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.BaseURL, "/"))
	var decoded chatCompletionsResp
	if err := postJSON(ctx, c.Client, url, c.APIKey, c.Org, c.Project, body, &decoded); err != nil {
		return nil, err
	}

	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return nil, &Error{Kind: KindEmptyResponse, Message: "empty completion"}
	}
	return &Result{
		Text:        decoded.Choices[0].Message.Content,
		ResponseID:  decoded.ID,
		Model:       decoded.Model,
		TotalTokens: decoded.Usage.TotalTokens,
	}, nil
}
