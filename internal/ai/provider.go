// Package ai talks to the generative text provider. Two request shapes are
// supported (the structured-turn responses API and the flat chat-completions
// API); both normalize down to plain text plus provider metadata.
package ai

import (
	"context"
	"strings"
)

// Turn is one prior exchange carried as context.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request is the provider-agnostic generation request. Temperature 0 means
// unset; the clients substitute the default, so whether the wire request
// carries a temperature depends only on the engine family.
type Request struct {
	Engine      string
	Instruction string // persona system text
	Context     []Turn
	UserMessage string
	Temperature float64
	MaxTokens   int
}

// Result is the normalized provider reply.
type Result struct {
	Text        string
	ResponseID  string
	Model       string
	TotalTokens int
}

type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// reasoningPrefixes name the model families that reject a sampling
// temperature parameter.
var reasoningPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

const defaultTemperature = 1.0

// requestTemperature resolves the temperature to put on the wire: nil for
// reasoning engines, the explicit value or the default for everything else.
func requestTemperature(req Request) *float64 {
	if IsReasoningEngine(req.Engine) {
		return nil
	}
	t := req.Temperature
	if t == 0 {
		t = defaultTemperature
	}
	return &t
}

// IsReasoningEngine reports whether the engine belongs to a reasoning
// family, by name prefix.
func IsReasoningEngine(engine string) bool {
	name := strings.ToLower(strings.TrimSpace(engine))
	for _, p := range reasoningPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
