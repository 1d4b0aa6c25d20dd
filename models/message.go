package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

type Message struct {
	gorm.Model
	ConversationID uint   `gorm:"index;not null"`
	Direction      string `gorm:"size:10;not null"` // "incoming" or "outgoing"
	Content        string `gorm:"type:text"`
	MessageType    string `gorm:"size:20;default:text"`
	// WahaMessageID is the gateway's message id; the unique index is the
	// dedup contract for webhook re-delivery.
	WahaMessageID string    `gorm:"uniqueIndex;size:120;not null"`
	Timestamp     time.Time `gorm:"index"`
	Status        string    `gorm:"size:20"`
}
