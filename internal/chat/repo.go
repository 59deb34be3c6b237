package chat

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// UpsertUser creates the user on first sight and overwrites the mutable
// fields on every later message (the platform always sends full state).
func (r *Repo) UpsertUser(ctx context.Context, u *User) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"handle", "color", "moderator", "subscriber", "vip", "turbo", "updated_at",
		}),
	}).Create(u).Error; err != nil {
		return err
	}
	// the driver's last-insert id is unreliable on conflict-update, so the
	// primary key is always read back
	var existing User
	if err := r.db.WithContext(ctx).
		Where("platform_id = ?", u.PlatformID).
		First(&existing).Error; err != nil {
		return err
	}
	u.ID = existing.ID
	u.CreatedAt = existing.CreatedAt
	return nil
}

func (r *Repo) GetUserByPlatformID(ctx context.Context, platformID string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).
		Where("platform_id = ?", platformID).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repo) GetMessageByMessageID(ctx context.Context, messageID string) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) InsertTurn(ctx context.Context, t *Turn) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repo) MaxSeq(ctx context.Context, userID uint64) (uint64, error) {
	var max *uint64
	if err := r.db.WithContext(ctx).Model(&Turn{}).
		Where("user_id = ?", userID).
		Select("MAX(seq)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// ListRecentTurnsDesc returns the newest turns first.
func (r *Repo) ListRecentTurnsDesc(ctx context.Context, userID uint64, limit int) ([]Turn, error) {
	var turns []Turn
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("seq DESC").
		Limit(limit).
		Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

// ListTurnsUpToSeqDesc returns the newest turns with seq <= maxSeq first.
func (r *Repo) ListTurnsUpToSeqDesc(ctx context.Context, userID uint64, maxSeq uint64, limit int) ([]Turn, error) {
	var turns []Turn
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND seq <= ?", userID, maxSeq).
		Order("seq DESC").
		Limit(limit).
		Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

// FindTurnByMessageID returns the most recent turn linked to the given
// platform message id.
func (r *Repo) FindTurnByMessageID(ctx context.Context, messageID string) (*Turn, error) {
	var t Turn
	if err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("id DESC").
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// AttachTurnMessageID backfills the outbound message link on a turn. Only an
// unlinked turn is touched, so repeating the call is a no-op.
func (r *Repo) AttachTurnMessageID(ctx context.Context, turnID uint64, messageID string) error {
	return r.db.WithContext(ctx).Model(&Turn{}).
		Where("id = ? AND message_id IS NULL", turnID).
		Update("message_id", messageID).Error
}

func (r *Repo) DeleteTurns(ctx context.Context, userID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Turn{})
	return res.RowsAffected, res.Error
}

// KnownHandles returns the lowercased handles of every user who has ever
// sent a message in the channel.
func (r *Repo) KnownHandles(ctx context.Context) (map[string]bool, error) {
	var handles []string
	if err := r.db.WithContext(ctx).Model(&User{}).
		Pluck("handle", &handles).Error; err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(handles))
	for _, h := range handles {
		known[strings.ToLower(h)] = true
	}
	return known, nil
}

// ListTurns pages through a user's ledger, newest first, for the dashboard.
func (r *Repo) ListTurns(ctx context.Context, userID uint64, limit int, beforeSeq uint64) ([]Turn, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("seq DESC").
		Limit(limit)
	if beforeSeq > 0 {
		q = q.Where("seq < ?", beforeSeq)
	}
	var turns []Turn
	if err := q.Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}
