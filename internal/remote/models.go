package remote

import "time"

// Remote mirror of the local record managers. The schema is provisioned out
// of band; a missing table is a recognized condition handled by the syncer,
// so nothing here is auto-migrated in production.

type Profile struct {
	ID           string    `gorm:"primaryKey;size:26" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255)" json:"-"`
	DisplayName  string    `gorm:"type:varchar(64)" json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

type UserSession struct {
	ID              string     `gorm:"primaryKey;size:26" json:"id"`
	UserID          string     `gorm:"size:26;index;not null" json:"user_id"`
	UserAgent       string     `gorm:"type:varchar(255)" json:"user_agent"`
	LoginAt         time.Time  `json:"login_at"`
	LogoutAt        *time.Time `json:"logout_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (UserSession) TableName() string { return "user_sessions" }

type Conversation struct {
	ID            string    `gorm:"primaryKey;size:26" json:"id"`
	UserID        string    `gorm:"size:26;index;not null" json:"user_id"`
	Title         string    `gorm:"type:varchar(64)" json:"title"`
	MessageCount  int       `gorm:"not null" json:"message_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

func (Conversation) TableName() string { return "conversations" }

type ConversationMessage struct {
	ID             string    `gorm:"primaryKey;size:26" json:"id"`
	ConversationID string    `gorm:"size:26;index;not null" json:"conversation_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	FromUser       bool      `gorm:"not null" json:"from_user"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ConversationMessage) TableName() string { return "conversation_messages" }
