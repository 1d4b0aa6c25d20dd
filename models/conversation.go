package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is one WhatsApp chat thread, keyed by normalized phone digits.
type Conversation struct {
	gorm.Model
	Phone              string `gorm:"uniqueIndex;size:32;not null"`
	LeadID             *uint  `gorm:"index"`
	ContactName        string `gorm:"size:200"`
	AvatarURL          string `gorm:"size:500"`
	LastMessageAt      time.Time
	LastMessagePreview string    `gorm:"size:500"`
	UnreadCount        int       `gorm:"not null;default:0"`
	Messages           []Message `gorm:"constraint:OnDelete:CASCADE"`
	Tags               []Tag     `gorm:"many2many:conversation_tags"`
}
