// Package bot wires classification, context resolution and provider calls
// into the per-message dispatch pipeline.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/glitchbyte/streambot/internal/ai"
	"github.com/glitchbyte/streambot/internal/chat"
	"github.com/glitchbyte/streambot/internal/command"
	"github.com/glitchbyte/streambot/internal/handlers"
	"github.com/glitchbyte/streambot/internal/routing"
	"github.com/glitchbyte/streambot/internal/twitch"
)

// defaultWindowLimit is the rolling-window size used when a chat is not
// part of a resolvable reply chain.
const defaultWindowLimit = 3

const apology = "Sorry, something went wrong on my side. Give me a moment and try again."

// ErrMissingIdentity rejects events the platform delivered without a user.
var ErrMissingIdentity = errors.New("bot: event has no user identity")

// Sender is the outbound half of the chat transport.
type Sender interface {
	Send(ctx context.Context, channel, text string) error
}

// CommandHandler runs every non-Chat command.
type CommandHandler interface {
	Handle(ctx context.Context, cmd command.Command, sender *chat.User) (string, error)
}

// Pipeline handles one inbound chat event at a time; it keeps no state of
// its own between events beyond what the ledger and registry hold.
type Pipeline struct {
	repo       *chat.Repo
	ledger     *chat.Ledger
	classifier *command.Classifier
	registry   *routing.Registry
	providers  *ai.Registry
	handlers   CommandHandler
	sender     Sender
	logger     *slog.Logger

	apiShape  string
	maxTokens int
}

func NewPipeline(
	repo *chat.Repo,
	ledger *chat.Ledger,
	classifier *command.Classifier,
	registry *routing.Registry,
	providers *ai.Registry,
	cmdHandlers CommandHandler,
	sender Sender,
	logger *slog.Logger,
	apiShape string,
	maxTokens int,
) *Pipeline {
	return &Pipeline{
		repo:       repo,
		ledger:     ledger,
		classifier: classifier,
		registry:   registry,
		providers:  providers,
		handlers:   cmdHandlers,
		sender:     sender,
		logger:     logger,
		apiShape:   apiShape,
		maxTokens:  maxTokens,
	}
}

// Handle runs one inbound event through record -> classify -> dispatch.
// The returned string is what was sent to chat; empty means the event was
// intentionally suppressed. Errors never escape as panics.
func (p *Pipeline) Handle(ctx context.Context, ev twitch.Event) (string, error) {
	if ev.UserID == "" || ev.Handle == "" {
		return "", ErrMissingIdentity
	}

	user := &chat.User{
		PlatformID: ev.UserID,
		Handle:     ev.Handle,
		Color:      ev.Color,
		Moderator:  ev.Moderator,
		Subscriber: ev.Subscriber,
		VIP:        ev.VIP,
		Turbo:      ev.Turbo,
	}
	if err := p.repo.UpsertUser(ctx, user); err != nil {
		return "", fmt.Errorf("upsert user: %w", err)
	}

	// every message is recorded, command or not
	msg := &chat.Message{
		MessageID:    ev.MessageID,
		UserID:       user.ID,
		Channel:      ev.Channel,
		Text:         ev.Text,
		IsReply:      ev.IsReply,
		FirstMessage: ev.FirstMessage,
		Highlighted:  ev.Highlighted,
		Bits:         ev.Bits,
	}
	if ev.ParentMessageID != "" {
		parent := ev.ParentMessageID
		msg.ParentMessageID = &parent
	}
	if err := p.repo.InsertMessage(ctx, msg); err != nil {
		return "", fmt.Errorf("record message: %w", err)
	}

	cmd := p.classifier.Classify(ev.Text, ev.ParentMessageID)
	if cmd == nil {
		return "", nil // silence is an intentional outcome
	}

	if c, isChat := cmd.(command.Chat); isChat {
		return p.handleChat(ctx, ev, user, c)
	}

	reply, err := p.handlers.Handle(ctx, cmd, user)
	if err != nil {
		var ve *handlers.ValidationError
		if errors.As(err, &ve) {
			reply = ve.Msg
		} else {
			p.logger.Error("command handler failed",
				"command", fmt.Sprintf("%T", cmd), "user", ev.Handle, "error", err)
			reply = apology
		}
	}
	if reply == "" {
		return "", nil
	}
	if err := p.sender.Send(ctx, ev.Channel, reply); err != nil {
		return "", fmt.Errorf("send reply: %w", err)
	}
	return reply, nil
}

func (p *Pipeline) handleChat(ctx context.Context, ev twitch.Event, user *chat.User, c command.Chat) (string, error) {
	st := p.registry.StateFor(ctx, ev.UserID)

	role := c.Role
	if role == "" {
		role = st.Role
	}
	instruction, ok := routing.Instruction(role)
	if !ok {
		instruction, _ = routing.Instruction(st.Role)
	}

	// the window is resolved before the current message enters the ledger;
	// the message itself travels separately as the "current" turn
	window := p.resolveWindow(ctx, user, st, c)

	if _, err := p.ledger.AppendUserTurn(ctx, user.ID, c.Text, strPtr(ev.MessageID)); err != nil {
		return "", fmt.Errorf("append user turn: %w", err)
	}

	provider, err := p.providers.Get(p.apiShape)
	if err != nil {
		return "", err
	}

	result, err := provider.Generate(ctx, ai.Request{
		Engine:      st.Engine,
		Instruction: instruction,
		Context:     toProviderTurns(window),
		UserMessage: c.Text,
		Temperature: c.Temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		p.logger.Error("provider call failed", "user", ev.Handle, "engine", st.Engine, "error", err)
		if sendErr := p.sender.Send(ctx, ev.Channel, apology); sendErr != nil {
			p.logger.Error("apology send failed", "error", sendErr)
		}
		return "", err
	}

	turn, err := p.ledger.AppendAssistantTurn(ctx, user.ID, result.Text, &chat.ProviderMeta{
		ResponseID:  result.ResponseID,
		Model:       result.Model,
		TotalTokens: result.TotalTokens,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("append assistant turn: %w", err)
	}

	if err := p.sender.Send(ctx, ev.Channel, result.Text); err != nil {
		return "", fmt.Errorf("send reply: %w", err)
	}

	// record the bot's own message so later replies can anchor on it, then
	// backfill the turn link (idempotent). The outbound row is itself a
	// reply to the triggering message: that link is what anchor resolution
	// follows when a user replies to the bot.
	outID := newOutboundID()
	out := &chat.Message{
		MessageID: outID,
		UserID:    user.ID,
		Channel:   ev.Channel,
		Text:      result.Text,
		Outbound:  true,
	}
	if ev.MessageID != "" {
		out.IsReply = true
		out.ParentMessageID = strPtr(ev.MessageID)
	}
	if err := p.repo.InsertMessage(ctx, out); err != nil {
		p.logger.Warn("outbound message record failed", "error", err)
	} else if err := p.ledger.AttachOutbound(ctx, turn.ID, outID); err != nil {
		p.logger.Warn("outbound link backfill failed", "error", err)
	}

	return result.Text, nil
}

// resolveWindow picks the context window for a chat. Every failure path
// degrades to the default rolling window; nothing here aborts the reply.
func (p *Pipeline) resolveWindow(ctx context.Context, user *chat.User, st routing.State, c command.Chat) []chat.Turn {
	if c.AnchorMessageID != "" {
		parent, err := p.repo.GetMessageByMessageID(ctx, c.AnchorMessageID)
		if err == nil && parent.IsReply && parent.ParentMessageID != nil {
			window, err := p.ledger.ReplyChainWindow(ctx, *parent.ParentMessageID, user.ID, st.Limit)
			if err == nil && len(window) > 0 {
				return window
			}
			if err != nil {
				p.logger.Warn("reply chain resolution failed", "anchor", c.AnchorMessageID, "error", err)
			}
		}
	}

	window, err := p.ledger.RollingWindow(ctx, user.ID, defaultWindowLimit)
	if err != nil {
		p.logger.Warn("rolling window fetch failed", "user", user.Handle, "error", err)
		return nil
	}
	return window
}

func toProviderTurns(window []chat.Turn) []ai.Turn {
	turns := make([]ai.Turn, 0, len(window))
	for _, t := range window {
		turns = append(turns, ai.Turn{Role: t.Role, Content: t.Content})
	}
	return turns
}

func newOutboundID() string {
	return "bot-" + ulid.Make().String()
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
