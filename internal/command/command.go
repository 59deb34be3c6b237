// Package command classifies raw chat text into the closed set of bot
// intents. Classification is deterministic prefix and shape matching; it
// never touches storage or the network.
package command

// Command is the sealed set of intents a message can resolve to. A nil
// Command means ordinary chat that the bot ignores.
type Command interface{ isCommand() }

// Chat asks the AI provider for a reply. Role and Temperature are
// per-message overrides; AnchorMessageID carries the platform id of the
// replied-to message when the chat is a reply.
type Chat struct {
	Text            string
	Role            string
	Temperature     float64 // 0 means provider default
	AnchorMessageID string
}

// ChangeRole persists a new default persona for the user.
type ChangeRole struct {
	Name string
}

// ChangeEngine persists a new provider model for the user.
type ChangeEngine struct {
	Name string
}

// SetReplyLimit persists a new reply-chain window size. Raw keeps the
// original token so the handler can word its validation message.
type SetReplyLimit struct {
	N   int
	Raw string
}

type Translate struct {
	Lang string
	Text string
}

type Holiday struct{}

type Fact struct{}

// Compliment targets the sender unless an explicit name was given.
type Compliment struct {
	Target string
}

type ViewerStats struct {
	Kind string
}

type SoundAlert struct {
	Alias string
}

func (Chat) isCommand()          {}
func (ChangeRole) isCommand()    {}
func (ChangeEngine) isCommand()  {}
func (SetReplyLimit) isCommand() {}
func (Translate) isCommand()     {}
func (Holiday) isCommand()       {}
func (Fact) isCommand()          {}
func (Compliment) isCommand()    {}
func (ViewerStats) isCommand()   {}
func (SoundAlert) isCommand()    {}
