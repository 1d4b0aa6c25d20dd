package services

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"InmoCRM/models"
	"InmoCRM/pkg/waha"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertBatchSize caps how many message rows a single backfill INSERT
// carries, so a full resync cannot slam the database with one giant write.
const insertBatchSize = 25

// SyncResult aggregates what one reconciliation run changed.
type SyncResult struct {
	Synced         int `json:"synced"`         // conversations created
	Linked         int `json:"linked"`         // new conversations linked to a lead
	MessagesSynced int `json:"messagesSynced"` // message rows inserted
}

// SyncOptions tunes a SyncService. Zero values fall back to defaults.
type SyncOptions struct {
	ChatConcurrency int    // concurrent per-chat workers
	MessagesKnown   int    // backfill depth for chats we already track
	MessagesNew     int    // backfill depth for newly discovered chats
	WebhookURL      string // when set, re-registered with the gateway before each run
}

// SyncService reconciles the gateway's chat list against stored
// conversations: bootstrap on first run, drift correction afterwards.
type SyncService struct {
	db   *gorm.DB
	gw   *waha.Client
	opts SyncOptions
}

func NewSyncService(db *gorm.DB, gw *waha.Client, opts SyncOptions) *SyncService {
	if opts.ChatConcurrency <= 0 {
		opts.ChatConcurrency = 4
	}
	if opts.MessagesKnown <= 0 {
		opts.MessagesKnown = 20
	}
	if opts.MessagesNew <= 0 {
		opts.MessagesNew = 100
	}
	return &SyncService{db: db, gw: gw, opts: opts}
}

// Run executes one full reconciliation pass. Per-chat failures are logged
// and skipped; only a failure to read local state aborts the run.
func (s *SyncService) Run(ctx context.Context) (SyncResult, error) {
	if s.opts.WebhookURL != "" {
		if err := s.gw.RegisterWebhook(ctx, s.opts.WebhookURL); err != nil {
			// non-fatal: sync still works without push, it just lags
			log.Printf("[sync] webhook registration failed: %v", err)
		}
	}

	chats := s.gw.ListChats(ctx)
	if len(chats) == 0 {
		log.Printf("[sync] gateway returned no chats")
		return SyncResult{}, nil
	}

	// one conversation prefetch instead of a query per chat
	var stored []models.Conversation
	if err := s.db.Find(&stored).Error; err != nil {
		return SyncResult{}, err
	}
	byPhone := make(map[string]*models.Conversation, len(stored))
	for i := range stored {
		byPhone[stored[i].Phone] = &stored[i]
	}

	var synced, linked, messages atomic.Int64
	sem := make(chan struct{}, s.opts.ChatConcurrency)
	var wg sync.WaitGroup
	for _, chat := range chats {
		wg.Add(1)
		sem <- struct{}{}
		go func(chat waha.Chat) {
			defer wg.Done()
			defer func() { <-sem }()
			s.syncChat(ctx, chat, byPhone[chat.ID.Phone()], &synced, &linked, &messages)
		}(chat)
	}
	wg.Wait()

	res := SyncResult{
		Synced:         int(synced.Load()),
		Linked:         int(linked.Load()),
		MessagesSynced: int(messages.Load()),
	}
	log.Printf("[sync] done: synced=%d linked=%d messages=%d", res.Synced, res.Linked, res.MessagesSynced)
	return res, nil
}

func (s *SyncService) syncChat(ctx context.Context, chat waha.Chat, existing *models.Conversation, synced, linked, messages *atomic.Int64) {
	phone := chat.ID.Phone()
	if phone == "" {
		return
	}

	gatewayTS := time.Time{}
	if chat.LastMessage != nil {
		gatewayTS = time.Unix(chat.LastMessage.Timestamp, 0)
	}

	// unchanged chat: nothing newer on the gateway and nothing unread,
	// so skip without touching the database at all
	if existing != nil && !gatewayTS.After(existing.LastMessageAt) && chat.UnreadCount == 0 {
		return
	}

	var convID uint
	isNew := existing == nil
	if isNew {
		conv := models.Conversation{
			Phone:       phone,
			ContactName: chat.Name,
			AvatarURL:   chat.Picture,
			UnreadCount: chat.UnreadCount,
		}
		if conv.ContactName == "" {
			conv.ContactName = phone
		}
		if chat.LastMessage != nil {
			conv.LastMessageAt = gatewayTS
			conv.LastMessagePreview = chat.LastMessage.Body
		}
		if lead := MatchLeadByPhone(s.db, phone); lead != nil {
			conv.LeadID = &lead.ID
		}
		// a webhook delivery can create the same conversation mid-run;
		// the phone unique index plus conflict-ignore keeps this safe
		res := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoNothing: true,
		}).Create(&conv)
		if res.Error != nil {
			log.Printf("[sync] create conversation %s failed: %v", phone, res.Error)
			return
		}
		if res.RowsAffected > 0 {
			synced.Add(1)
			if conv.LeadID != nil {
				linked.Add(1)
			}
		}
		if conv.ID == 0 {
			if err := s.db.Where("phone = ?", phone).First(&conv).Error; err != nil {
				log.Printf("[sync] reload conversation %s failed: %v", phone, err)
				return
			}
		}
		convID = conv.ID
	} else {
		updates := map[string]any{"unread_count": chat.UnreadCount}
		if chat.Name != "" {
			updates["contact_name"] = chat.Name
		}
		if chat.Picture != "" {
			updates["avatar_url"] = chat.Picture
		}
		if chat.LastMessage != nil {
			updates["last_message_at"] = gatewayTS
			updates["last_message_preview"] = chat.LastMessage.Body
		}
		if err := s.db.Model(&models.Conversation{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			log.Printf("[sync] update conversation %s failed: %v", phone, err)
			return
		}
		convID = existing.ID
	}

	messages.Add(s.backfill(ctx, chat, convID, isNew))
}

// backfill pulls recent history for one chat and inserts it with the same
// conflict-ignore dedup contract the webhook path uses. New chats get a
// deeper pull than already-known ones to keep steady-state runs cheap.
func (s *SyncService) backfill(ctx context.Context, chat waha.Chat, convID uint, isNew bool) int64 {
	limit := s.opts.MessagesKnown
	if isNew {
		limit = s.opts.MessagesNew
	}
	history := s.gw.ListMessages(ctx, chat.ID.String(), limit)
	if len(history) == 0 {
		return 0
	}

	rows := make([]models.Message, 0, len(history))
	for _, m := range history {
		id := m.ID.String()
		if id == "" {
			continue
		}
		direction := models.DirectionIncoming
		if m.FromMe {
			direction = models.DirectionOutgoing
		}
		msgType := "text"
		if m.HasMedia {
			msgType = "media"
		}
		rows = append(rows, models.Message{
			ConversationID: convID,
			Direction:      direction,
			Content:        m.Body,
			MessageType:    msgType,
			WahaMessageID:  id,
			Timestamp:      time.Unix(m.Timestamp, 0),
			Status:         m.AckName,
		})
	}
	if len(rows) == 0 {
		return 0
	}

	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "waha_message_id"}},
		DoNothing: true,
	}).CreateInBatches(rows, insertBatchSize)
	if res.Error != nil {
		log.Printf("[sync] backfill chat=%s failed: %v", chat.ID, res.Error)
		return 0
	}
	return res.RowsAffected
}
