// Package twitch is the chat transport: an IRC-over-WebSocket client plus a
// pure parser for tagged PRIVMSG lines.
package twitch

import (
	"strconv"
	"strings"
)

// Event is one inbound chat message with the platform metadata the pipeline
// cares about. Badge and flag pointers are nil when the platform omitted the
// tag (it never sends an explicit false). The json tags define the wire
// shape for the queue transport.
type Event struct {
	UserID string `json:"user_id"`
	Handle string `json:"handle"`
	Color  string `json:"color,omitempty"`

	Moderator  *bool `json:"moderator,omitempty"`
	Subscriber *bool `json:"subscriber,omitempty"`
	VIP        *bool `json:"vip,omitempty"`
	Turbo      *bool `json:"turbo,omitempty"`

	MessageID string `json:"message_id"`
	Channel   string `json:"channel"`
	Text      string `json:"text"`

	IsReply         bool   `json:"is_reply,omitempty"`
	ParentMessageID string `json:"parent_message_id,omitempty"`

	FirstMessage *bool `json:"first_message,omitempty"`
	Highlighted  *bool `json:"highlighted,omitempty"`
	Bits         int   `json:"bits,omitempty"`
}

// ParseMessage parses a raw IRC line. ok is false for anything that is not
// a PRIVMSG (pings, joins, notices).
func ParseMessage(line string) (ev Event, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Event{}, false
	}

	var tags map[string]string
	if strings.HasPrefix(line, "@") {
		i := strings.IndexByte(line, ' ')
		if i < 0 {
			return Event{}, false
		}
		tags = parseTags(line[1:i])
		line = line[i+1:]
	}

	// :nick!user@host PRIVMSG #channel :text
	if !strings.HasPrefix(line, ":") {
		return Event{}, false
	}
	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return Event{}, false
	}
	prefix := line[1:i]
	rest := line[i+1:]

	if !strings.HasPrefix(rest, "PRIVMSG ") {
		return Event{}, false
	}
	rest = strings.TrimPrefix(rest, "PRIVMSG ")

	j := strings.Index(rest, " :")
	if j < 0 {
		return Event{}, false
	}
	channel := strings.TrimPrefix(rest[:j], "#")
	text := rest[j+2:]

	handle := prefix
	if k := strings.IndexByte(prefix, '!'); k >= 0 {
		handle = prefix[:k]
	}
	if dn := tags["display-name"]; dn != "" {
		handle = dn
	}

	ev = Event{
		UserID:    tags["user-id"],
		Handle:    handle,
		Color:     tags["color"],
		MessageID: tags["id"],
		Channel:   channel,
		Text:      text,
	}

	if parent := tags["reply-parent-msg-id"]; parent != "" {
		ev.IsReply = true
		ev.ParentMessageID = parent
	}
	if bits := tags["bits"]; bits != "" {
		if n, err := strconv.Atoi(bits); err == nil {
			ev.Bits = n
		}
	}
	if tags["first-msg"] == "1" {
		ev.FirstMessage = boolPtr(true)
	}
	if tags["msg-id"] == "highlighted-message" {
		ev.Highlighted = boolPtr(true)
	}

	badges := tags["badges"]
	for _, badge := range strings.Split(badges, ",") {
		name, _, _ := strings.Cut(badge, "/")
		switch name {
		case "moderator", "broadcaster":
			ev.Moderator = boolPtr(true)
		case "subscriber", "founder":
			ev.Subscriber = boolPtr(true)
		case "vip":
			ev.VIP = boolPtr(true)
		case "turbo":
			ev.Turbo = boolPtr(true)
		}
	}

	return ev, true
}

func parseTags(raw string) map[string]string {
	tags := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		key, value, _ := strings.Cut(pair, "=")
		tags[key] = unescapeTag(value)
	}
	return tags
}

// unescapeTag undoes IRCv3 tag value escaping.
func unescapeTag(v string) string {
	if !strings.ContainsRune(v, '\\') {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' || i == len(v)-1 {
			b.WriteByte(v[i])
			continue
		}
		i++
		switch v[i] {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(v[i])
		}
	}
	return b.String()
}

func boolPtr(v bool) *bool { return &v }
