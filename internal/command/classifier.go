package command

import (
	"strconv"
	"strings"
)

var aiPrefixes = []string{"!ai", "!ии", "!бот", "!gpt"}

var holidayPrefixes = []string{"!holiday", "!праздник"}

var factPrefixes = []string{"!fact", "!факт"}

var complimentPrefixes = []string{"!compliment", "!комплимент"}

var translateLangs = []string{"ru", "en", "zh", "ja", "es"}

var viewerStatsKinds = map[string]bool{
	"viewers": true,
	"silent":  true,
	"stats":   true,
}

const enginePrefix = "!engine"

const limitPrefix = "!limit"

// Classifier turns raw chat text into a Command. It is pure and total:
// unrecognized input yields nil, never an error.
type Classifier struct {
	personas map[string]bool
}

// NewClassifier builds a classifier that recognizes the given persona names
// in role-change and inline-role positions.
func NewClassifier(personas []string) *Classifier {
	set := make(map[string]bool, len(personas))
	for _, p := range personas {
		set[strings.ToLower(p)] = true
	}
	return &Classifier{personas: set}
}

func (c *Classifier) knownPersona(tok string) bool {
	return c.personas[strings.ToLower(tok)]
}

// Classify resolves raw text plus optional reply metadata into a Command.
// The rule order is load-bearing: a reply anchor wins over everything, the
// bare-! sound alert loses to everything.
func (c *Classifier) Classify(raw, replyAnchor string) Command {
	text := strings.TrimSpace(raw)

	// 1. Replies are always chat. Whether the parent is actually a bot
	// message is resolved later by the ledger; a miss degrades to the
	// rolling window.
	if replyAnchor != "" {
		return Chat{Text: text, AnchorMessageID: replyAnchor}
	}

	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	// 2. AI invocation
	for _, p := range aiPrefixes {
		if !hasPrefixToken(lower, p) {
			continue
		}
		parts := strings.Fields(text)
		if len(parts) == 2 && c.knownPersona(parts[1]) {
			return ChangeRole{Name: strings.ToLower(parts[1])}
		}
		rest := strings.TrimSpace(text[len(p):])
		return c.parseChat(rest)
	}

	// 3. holiday
	for _, p := range holidayPrefixes {
		if hasPrefixToken(lower, p) {
			return Holiday{}
		}
	}

	// 4. translation, two-letter prefix with a mandatory body
	for _, lang := range translateLangs {
		p := "!" + lang + " "
		if strings.HasPrefix(lower, p) {
			body := strings.TrimSpace(text[len(p):])
			if body != "" {
				return Translate{Lang: lang, Text: body}
			}
		}
	}

	// 5. fact
	for _, p := range factPrefixes {
		if hasPrefixToken(lower, p) {
			return Fact{}
		}
	}

	// 6. compliment, optional explicit target
	for _, p := range complimentPrefixes {
		if hasPrefixToken(lower, p) {
			parts := strings.Fields(text)
			if len(parts) >= 2 {
				return Compliment{Target: strings.TrimPrefix(parts[1], "@")}
			}
			return Compliment{}
		}
	}

	// 7. viewer stats, bare command name must be in the known set
	if name := strings.TrimPrefix(strings.Fields(lower)[0], "!"); viewerStatsKinds[name] {
		return ViewerStats{Kind: name}
	}

	// routing-state commands, ahead of the sound-alert catch-all
	if hasPrefixToken(lower, enginePrefix) {
		if parts := strings.Fields(text); len(parts) >= 2 {
			return ChangeEngine{Name: parts[1]}
		}
		return ChangeEngine{}
	}
	if hasPrefixToken(lower, limitPrefix) {
		parts := strings.Fields(text)
		if len(parts) >= 2 {
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				n = 0
			}
			return SetReplyLimit{N: n, Raw: parts[1]}
		}
		return SetReplyLimit{}
	}

	// 8. any other !alias is a sound alert
	if strings.HasPrefix(text, "!") && len(text) > 1 {
		alias := strings.Join(strings.Fields(text[1:]), "")
		if alias != "" {
			return SoundAlert{Alias: alias}
		}
	}

	// 9. ordinary chat, not a command
	return nil
}

// parseChat handles the free-form tail of an AI invocation: an optional
// persona token, an optional temperature percentage (1-100), then text.
func (c *Classifier) parseChat(rest string) Command {
	chat := Chat{}
	haveRole := false
	haveTemp := false

	for i := 0; i < 2; i++ {
		tok, rem := splitFirst(rest)
		if tok == "" {
			break
		}
		if !haveRole && c.knownPersona(tok) {
			chat.Role = strings.ToLower(tok)
			haveRole = true
			rest = rem
			continue
		}
		if !haveTemp {
			if pct, err := strconv.Atoi(tok); err == nil && pct >= 1 && pct <= 100 {
				chat.Temperature = clampTemperature(pct)
				haveTemp = true
				rest = rem
				continue
			}
		}
		break
	}

	chat.Text = strings.TrimSpace(rest)
	return chat
}

// clampTemperature maps a 1-100 percentage onto the provider range.
func clampTemperature(pct int) float64 {
	t := float64(pct) / 100 * 2
	if t < 0.1 {
		t = 0.1
	}
	if t > 2.0 {
		t = 2.0
	}
	return t
}

// hasPrefixToken reports whether s starts with the prefix as a whole token
// ("!ai hi" and "!ai" match "!ai"; "!airhorn" does not).
func hasPrefixToken(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	return len(s) == len(prefix) || s[len(prefix)] == ' '
}

func splitFirst(s string) (token, rest string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
