package chat

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User is the identity as seen on the chat platform. Fields are overwritten
// on every message because the platform re-sends the full current state.
type User struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	PlatformID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"platform_id"`
	Handle     string `gorm:"type:varchar(64);not null" json:"handle"`
	Color      string `gorm:"type:varchar(16)" json:"color,omitempty"`

	// Badge tags are tri-state: the platform omits them instead of sending false.
	Moderator  *bool `json:"moderator,omitempty"`
	Subscriber *bool `json:"subscriber,omitempty"`
	VIP        *bool `gorm:"column:vip" json:"vip,omitempty"`
	Turbo      *bool `json:"turbo,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "chat_users" }

// Message is one row per platform message, immutable once written. The bot's
// own replies are recorded here too (Outbound=true) so reply anchors resolve
// against them. Platform flags are carried for analytics only.
type Message struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"message_id"`
	UserID    uint64 `gorm:"index;not null" json:"-"`
	Channel   string `gorm:"type:varchar(64);not null" json:"channel"`
	Text      string `gorm:"type:text;not null" json:"text"`
	Outbound  bool   `gorm:"not null" json:"outbound"`

	IsReply         bool    `json:"is_reply"`
	ParentMessageID *string `gorm:"type:varchar(64);index" json:"parent_message_id,omitempty"`

	FirstMessage *bool `json:"first_message,omitempty"`
	Highlighted  *bool `json:"highlighted,omitempty"`
	Bits         int   `json:"bits,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

// Turn is one entry in a user's conversation ledger. Seq is strictly
// increasing per user; MessageID links back to the chat_messages row that
// produced the turn (backfilled for assistant turns once the reply is sent).
type Turn struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  uint64 `gorm:"not null;index:uniq_turn_user_seq,unique,priority:1" json:"-"`
	Seq     uint64 `gorm:"not null;index:uniq_turn_user_seq,unique,priority:2" json:"seq"`
	Role    string `gorm:"type:varchar(16);index;not null" json:"role"`
	Content string `gorm:"type:text;not null" json:"content"`

	MessageID *string `gorm:"type:varchar(64);index" json:"message_id,omitempty"`

	// provider metadata, assistant turns only
	ResponseID  *string `gorm:"type:varchar(128)" json:"response_id,omitempty"`
	Model       *string `gorm:"type:varchar(64)" json:"model,omitempty"`
	TotalTokens *int    `json:"total_tokens,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Turn) TableName() string { return "chat_turns" }
