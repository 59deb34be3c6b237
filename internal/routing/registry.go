// Package routing holds the per-user mutable routing state: selected
// persona, provider engine and reply-chain window size.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const (
	MinReplyLimit = 1
	MaxReplyLimit = 10
)

var (
	ErrUnknownRole     = errors.New("unknown role")
	ErrLimitOutOfRange = fmt.Errorf("reply limit must be between %d and %d", MinReplyLimit, MaxReplyLimit)
	ErrEmptyEngine     = errors.New("engine name must not be empty")
)

// State is one user's routing configuration.
type State struct {
	Role   string `json:"role"`
	Engine string `json:"engine"`
	Limit  int    `json:"limit"`
}

// Store persists routing state across restarts. Load returns (nil, nil)
// when the user has no saved state.
type Store interface {
	Load(ctx context.Context, userID string) (*State, error)
	Save(ctx context.Context, userID string, st State) error
}

// Registry is an in-process map fronting the durable store. Reads hit the
// map; writes go through to the store; a miss falls back to the store and
// then to the configured defaults.
type Registry struct {
	mu     sync.RWMutex
	states map[string]State

	store  Store // may be nil
	logger *slog.Logger

	defaultRole   string
	defaultEngine string
	defaultLimit  int
}

func NewRegistry(store Store, logger *slog.Logger, defaultRole, defaultEngine string, defaultLimit int) *Registry {
	if _, ok := Instruction(defaultRole); !ok {
		defaultRole = "assistant"
	}
	if defaultLimit < MinReplyLimit || defaultLimit > MaxReplyLimit {
		defaultLimit = 3
	}
	return &Registry{
		states:        make(map[string]State),
		store:         store,
		logger:        logger,
		defaultRole:   defaultRole,
		defaultEngine: defaultEngine,
		defaultLimit:  defaultLimit,
	}
}

func (r *Registry) defaults() State {
	return State{Role: r.defaultRole, Engine: r.defaultEngine, Limit: r.defaultLimit}
}

// StateFor returns the user's full routing state, falling back per field.
func (r *Registry) StateFor(ctx context.Context, userID string) State {
	r.mu.RLock()
	st, ok := r.states[userID]
	r.mu.RUnlock()
	if !ok {
		st = r.load(ctx, userID)
	}
	if st.Role == "" {
		st.Role = r.defaultRole
	}
	if st.Engine == "" {
		st.Engine = r.defaultEngine
	}
	if st.Limit < MinReplyLimit || st.Limit > MaxReplyLimit {
		st.Limit = r.defaultLimit
	}
	return st
}

func (r *Registry) load(ctx context.Context, userID string) State {
	if r.store == nil {
		return r.defaults()
	}
	saved, err := r.store.Load(ctx, userID)
	if err != nil {
		r.logger.Warn("routing state load failed", "user", userID, "error", err)
		return r.defaults()
	}
	if saved == nil {
		return r.defaults()
	}
	r.mu.Lock()
	r.states[userID] = *saved
	r.mu.Unlock()
	return *saved
}

func (r *Registry) Role(ctx context.Context, userID string) string {
	return r.StateFor(ctx, userID).Role
}

func (r *Registry) Engine(ctx context.Context, userID string) string {
	return r.StateFor(ctx, userID).Engine
}

func (r *Registry) Limit(ctx context.Context, userID string) int {
	return r.StateFor(ctx, userID).Limit
}

func (r *Registry) SetRole(ctx context.Context, userID, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := Instruction(name); !ok {
		return ErrUnknownRole
	}
	return r.update(ctx, userID, func(st *State) { st.Role = name })
}

func (r *Registry) SetEngine(ctx context.Context, userID, engine string) error {
	engine = strings.TrimSpace(engine)
	if engine == "" {
		return ErrEmptyEngine
	}
	return r.update(ctx, userID, func(st *State) { st.Engine = engine })
}

// SetLimit rejects out-of-range values outright; the previous value stays.
func (r *Registry) SetLimit(ctx context.Context, userID string, n int) error {
	if n < MinReplyLimit || n > MaxReplyLimit {
		return ErrLimitOutOfRange
	}
	return r.update(ctx, userID, func(st *State) { st.Limit = n })
}

func (r *Registry) update(ctx context.Context, userID string, apply func(*State)) error {
	st := r.StateFor(ctx, userID)
	apply(&st)

	r.mu.Lock()
	r.states[userID] = st
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Save(ctx, userID, st); err != nil {
			r.logger.Warn("routing state save failed", "user", userID, "error", err)
		}
	}
	return nil
}
