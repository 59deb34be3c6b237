// Package handlers implements the simple (non-AI) command handlers. Each is
// a plain (Command) -> display-text function; the dispatch pipeline treats
// them as opaque.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/glitchbyte/streambot/internal/chat"
	"github.com/glitchbyte/streambot/internal/command"
	"github.com/glitchbyte/streambot/internal/routing"
)

// ValidationError carries a user-facing explanation of why a command's
// input was rejected. The pipeline sends Msg verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// AlertPublisher is what the sound-alert handler needs from the queue.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alias, requestedBy string) error
}

// Set bundles every simple command handler behind one dispatch point.
type Set struct {
	Registry  *routing.Registry
	Holiday   *HolidayService
	Translate *TranslateService
	Viewers   *ViewerStatsService
	Alerts    AlertPublisher
	Logger    *slog.Logger
}

// Handle executes a non-Chat command and returns the display text. An empty
// string with nil error means the command completed silently.
func (s *Set) Handle(ctx context.Context, cmd command.Command, sender *chat.User) (string, error) {
	switch c := cmd.(type) {
	case command.ChangeRole:
		if err := s.Registry.SetRole(ctx, sender.PlatformID, c.Name); err != nil {
			if errors.Is(err, routing.ErrUnknownRole) {
				return "", &ValidationError{Msg: fmt.Sprintf(
					"I don't know the role %q. Available roles: %s.", c.Name, knownRoles())}
			}
			return "", err
		}
		return fmt.Sprintf("@%s, role changed to %s.", sender.Handle, c.Name), nil

	case command.ChangeEngine:
		if err := s.Registry.SetEngine(ctx, sender.PlatformID, c.Name); err != nil {
			if errors.Is(err, routing.ErrEmptyEngine) {
				return "", &ValidationError{Msg: "Usage: !engine <model-name>."}
			}
			return "", err
		}
		return fmt.Sprintf("@%s, engine changed to %s.", sender.Handle, c.Name), nil

	case command.SetReplyLimit:
		if err := s.Registry.SetLimit(ctx, sender.PlatformID, c.N); err != nil {
			if errors.Is(err, routing.ErrLimitOutOfRange) {
				return "", &ValidationError{Msg: fmt.Sprintf(
					"Reply limit must be a number between %d and %d.",
					routing.MinReplyLimit, routing.MaxReplyLimit)}
			}
			return "", err
		}
		return fmt.Sprintf("@%s, reply limit set to %d.", sender.Handle, c.N), nil

	case command.Translate:
		return s.Translate.Translate(ctx, c.Lang, c.Text)

	case command.Holiday:
		return s.Holiday.Today(ctx)

	case command.Fact:
		return randomFact(), nil

	case command.Compliment:
		target := c.Target
		if target == "" {
			target = sender.Handle
		}
		return fmt.Sprintf("@%s, %s", target, randomCompliment()), nil

	case command.ViewerStats:
		return s.Viewers.Report(ctx, c.Kind)

	case command.SoundAlert:
		if err := s.Alerts.PublishAlert(ctx, c.Alias, sender.Handle); err != nil {
			return "", err
		}
		// the sound plays on the overlay; chat stays quiet
		return "", nil
	}

	return "", fmt.Errorf("handlers: unsupported command %T", cmd)
}

func knownRoles() string {
	names := routing.PersonaNames()
	sort.Strings(names)
	return strings.Join(names, ", ")
}
