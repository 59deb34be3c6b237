package chat

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
)

// ProviderMeta is attached to assistant turns after a successful generation.
type ProviderMeta struct {
	ResponseID  string
	Model       string
	TotalTokens int
}

// Ledger is the single source of truth for turn ordering and context-window
// resolution. Sequence numbers are assigned under a per-user lock: the
// high-water mark is read from the store once and cached, so concurrent
// appends for the same user can never race read-max-then-write.
type Ledger struct {
	repo *Repo

	mu   sync.Mutex
	seqs map[uint64]*userSeq
}

type userSeq struct {
	mu     sync.Mutex
	next   uint64
	primed bool
}

func NewLedger(repo *Repo) *Ledger {
	return &Ledger{repo: repo, seqs: make(map[uint64]*userSeq)}
}

func (l *Ledger) seqFor(userID uint64) *userSeq {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.seqs[userID]
	if !ok {
		s = &userSeq{}
		l.seqs[userID] = s
	}
	return s
}

func (l *Ledger) nextSeq(ctx context.Context, userID uint64, s *userSeq) (uint64, error) {
	if !s.primed {
		max, err := l.repo.MaxSeq(ctx, userID)
		if err != nil {
			return 0, err
		}
		s.next = max
		s.primed = true
	}
	s.next++
	return s.next, nil
}

func (l *Ledger) append(ctx context.Context, t *Turn) (*Turn, error) {
	s := l.seqFor(t.UserID)
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := l.nextSeq(ctx, t.UserID, s)
	if err != nil {
		return nil, err
	}
	t.Seq = seq
	if err := l.repo.InsertTurn(ctx, t); err != nil {
		// the counter stays advanced; gaps are fine, duplicates are not
		return nil, err
	}
	return t, nil
}

func (l *Ledger) AppendUserTurn(ctx context.Context, userID uint64, content string, messageID *string) (*Turn, error) {
	return l.append(ctx, &Turn{
		UserID:    userID,
		Role:      RoleUser,
		Content:   content,
		MessageID: messageID,
	})
}

func (l *Ledger) AppendAssistantTurn(ctx context.Context, userID uint64, content string, meta *ProviderMeta, messageID *string) (*Turn, error) {
	t := &Turn{
		UserID:    userID,
		Role:      RoleAssistant,
		Content:   content,
		MessageID: messageID,
	}
	if meta != nil {
		if meta.ResponseID != "" {
			t.ResponseID = &meta.ResponseID
		}
		if meta.Model != "" {
			t.Model = &meta.Model
		}
		if meta.TotalTokens > 0 {
			tokens := meta.TotalTokens
			t.TotalTokens = &tokens
		}
	}
	return l.append(ctx, t)
}

// RollingWindow returns the most recent limit*2 turns in ascending order,
// trimmed so the window does not open mid-pair.
func (l *Ledger) RollingWindow(ctx context.Context, userID uint64, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 1
	}
	desc, err := l.repo.ListRecentTurnsDesc(ctx, userID, limit*2)
	if err != nil {
		return nil, err
	}
	return ascendingPairs(desc, limit*2), nil
}

// ReplyChainWindow resolves the context window ending at the turn linked to
// the given platform message id. An unknown or unlinked parent yields an
// empty window, never an error: callers fall back to the rolling window.
func (l *Ledger) ReplyChainWindow(ctx context.Context, parentMessageID string, userID uint64, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 1
	}
	if _, err := l.repo.GetMessageByMessageID(ctx, parentMessageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	anchor, err := l.repo.FindTurnByMessageID(ctx, parentMessageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	desc, err := l.repo.ListTurnsUpToSeqDesc(ctx, userID, anchor.Seq, limit*2)
	if err != nil {
		return nil, err
	}
	return ascendingPairs(desc, limit*2), nil
}

// IsBotAuthored reports whether the turn linked to the platform message id
// has the assistant role. Unknown ids are simply not bot-authored.
func (l *Ledger) IsBotAuthored(ctx context.Context, messageID string) (bool, error) {
	t, err := l.repo.FindTurnByMessageID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return t.Role == RoleAssistant, nil
}

func (l *Ledger) Clear(ctx context.Context, userID uint64) (int64, error) {
	s := l.seqFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	// keep the cached counter; new turns continue above the old high-water mark
	return l.repo.DeleteTurns(ctx, userID)
}

func (l *Ledger) AttachOutbound(ctx context.Context, turnID uint64, messageID string) error {
	return l.repo.AttachTurnMessageID(ctx, turnID, messageID)
}

// ascendingPairs reverses a DESC slice to ASC and, when the fetch came back
// full, drops a leading assistant turn whose user half was cut off.
func ascendingPairs(desc []Turn, fetched int) []Turn {
	asc := make([]Turn, 0, len(desc))
	for i := len(desc) - 1; i >= 0; i-- {
		asc = append(asc, desc[i])
	}
	if len(asc) == fetched && len(asc) > 0 && asc[0].Role == RoleAssistant {
		asc = asc[1:]
	}
	return asc
}
