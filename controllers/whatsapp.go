package controllers

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"InmoCRM/models"
	"InmoCRM/pkg/cache"
	"InmoCRM/pkg/config"
	svc "InmoCRM/pkg/services"
	utils "InmoCRM/pkg/utills"
	"InmoCRM/pkg/waha"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookEnvelope struct {
	Event   string          `json:"event"`
	Session string          `json:"session"`
	Payload json.RawMessage `json:"payload"`
}

type messagePayload struct {
	ID           waha.ChatID `json:"id"`
	ChatID       waha.ChatID `json:"chatId"`
	From         waha.ChatID `json:"from"`
	To           waha.ChatID `json:"to"`
	Body         string      `json:"body"`
	FromMe       bool        `json:"fromMe"`
	Timestamp    int64       `json:"timestamp"` // seconds since epoch
	HasMedia     bool        `json:"hasMedia"`
	VerifiedName string      `json:"verifiedName"`
	Pushname     string      `json:"pushname"`
}

// Webhook receives push events from the gateway. The contract with the
// gateway is 200 on every path except a top-level parse failure: the gateway
// owns retry semantics, and a 5xx here would only cause retry storms for
// errors retries cannot fix.
func Webhook(db *gorm.DB, hub *InboxHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var env webhookEnvelope
		if err := c.ShouldBindJSON(&env); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if env.Event != "message" {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		var p messagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("[webhook] bad message payload: %v", err)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		chatID := p.ChatID
		if chatID == "" {
			if p.FromMe {
				chatID = p.To
			} else {
				chatID = p.From
			}
		}
		phone := chatID.Phone()
		msgID := p.ID.String()
		// incomplete events carry nothing we can persist; ignore silently
		if phone == "" || p.Body == "" || msgID == "" {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		ts := time.Unix(p.Timestamp, 0)
		if p.Timestamp == 0 {
			ts = time.Now()
		}
		name := p.VerifiedName
		if name == "" {
			name = p.Pushname
		}

		conv, err := upsertConversation(db, phone, name, p.Body, ts, p.FromMe)
		if err != nil {
			// absorbed: the manual sync endpoint recovers missed events
			log.Printf("[webhook] conversation upsert for %s failed: %v", phone, err)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		direction := models.DirectionIncoming
		if p.FromMe {
			direction = models.DirectionOutgoing
		}
		msgType := "text"
		if p.HasMedia {
			msgType = "media"
		}
		msg := models.Message{
			ConversationID: conv.ID,
			Direction:      direction,
			Content:        p.Body,
			MessageType:    msgType,
			WahaMessageID:  msgID,
			Timestamp:      ts,
		}
		// duplicate delivery resolves to zero rows affected, not an error
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "waha_message_id"}},
			DoNothing: true,
		}).Create(&msg)
		if res.Error != nil {
			log.Printf("[webhook] message insert %s failed: %v", msgID, res.Error)
		} else if res.RowsAffected > 0 && !p.FromMe {
			hub.Broadcast(InboxEvent{
				Type:           "message",
				ConversationID: conv.ID,
				Phone:          phone,
				ContactName:    conv.ContactName,
				Content:        p.Body,
				Direction:      direction,
				Timestamp:      ts.Unix(),
			})
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// upsertConversation finds or creates the conversation for phone and applies
// the per-message mutations: preview, timestamp and the unread counter. The
// increment is a SQL expression so concurrent deliveries for the same chat
// cannot lose updates.
func upsertConversation(db *gorm.DB, phone, name, preview string, ts time.Time, fromMe bool) (*models.Conversation, error) {
	var conv models.Conversation
	err := db.Where("phone = ?", phone).First(&conv).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		unread := 1
		if fromMe {
			unread = 0
		}
		conv = models.Conversation{
			Phone:              phone,
			ContactName:        name,
			UnreadCount:        unread,
			LastMessageAt:      ts,
			LastMessagePreview: preview,
		}
		if conv.ContactName == "" {
			conv.ContactName = phone
		}
		if lead := svc.MatchLeadByPhone(db, phone); lead != nil {
			conv.LeadID = &lead.ID
		}
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoNothing: true,
		}).Create(&conv)
		if res.Error != nil {
			return nil, res.Error
		}
		if conv.ID == 0 {
			// lost the race against a concurrent delivery; reload
			if err := db.Where("phone = ?", phone).First(&conv).Error; err != nil {
				return nil, err
			}
		}
		return &conv, nil
	case err != nil:
		return nil, err
	}

	updates := map[string]any{
		"last_message_at":      ts,
		"last_message_preview": preview,
	}
	if fromMe {
		updates["unread_count"] = 0
	} else {
		updates["unread_count"] = gorm.Expr("unread_count + ?", 1)
	}
	if name != "" {
		updates["contact_name"] = name
	}
	if err := db.Model(&models.Conversation{}).Where("id = ?", conv.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// SessionStatus reports the mapped gateway state plus a QR payload while the
// session is pairing. Snapshots are cached briefly because every open CRM
// tab polls this endpoint.
func SessionStatus(gw *waha.Client) gin.HandlerFunc {
	ttl := time.Duration(config.StatusCacheTTLSeconds) * time.Second
	return func(c *gin.Context) {
		if snap, ok := cache.Default().GetSessionStatus(gw.SessionName()); ok {
			c.JSON(http.StatusOK, statusBody(snap))
			return
		}

		session := gw.SessionStatus(c.Request.Context())
		state := session.State()
		qr := ""
		if state != waha.StateConnected {
			if code := gw.QR(c.Request.Context()); code != "" {
				qr = renderQR(code)
			}
		}
		snap := cache.StatusSnapshot{Status: string(state), QR: qr, Session: gw.SessionName()}
		cache.Default().SetSessionStatus(gw.SessionName(), snap, ttl)
		c.JSON(http.StatusOK, statusBody(snap))
	}
}

func statusBody(snap cache.StatusSnapshot) gin.H {
	var qr any
	if snap.QR != "" {
		qr = snap.QR
	}
	return gin.H{"status": snap.Status, "qr": qr, "session": snap.Session}
}

// renderQR turns a plain pairing code into a PNG data URL so the frontend
// always gets an image. Codes the gateway already rendered pass through.
func renderQR(code string) string {
	if strings.HasPrefix(code, "data:") {
		return code
	}
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		log.Printf("[whatsapp] qr encode failed: %v", err)
		return code
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// StartSession proxies a session start to the gateway.
func StartSession(gw *waha.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := gw.StartSession(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		cache.Default().InvalidateSessionStatus(gw.SessionName())
		respondRaw(c, raw)
	}
}

// StopSession proxies a session stop. The pairing survives, so a later start
// reconnects without scanning again.
func StopSession(gw *waha.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := gw.StopSession(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		cache.Default().InvalidateSessionStatus(gw.SessionName())
		respondRaw(c, raw)
	}
}

// LogoutSession proxies a session logout to the gateway.
func LogoutSession(gw *waha.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := gw.LogoutSession(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		cache.Default().InvalidateSessionStatus(gw.SessionName())
		respondRaw(c, raw)
	}
}

func respondRaw(c *gin.Context, raw json.RawMessage) {
	if len(raw) == 0 {
		c.JSON(http.StatusOK, gin.H{"msg": "ok"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// SendMessage sends a text through the gateway and persists the outgoing
// message. Unlike the read paths, a gateway failure here is user-visible.
func SendMessage(db *gorm.DB, gw *waha.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ChatID         string `json:"chatId"`
			Content        string `json:"content"`
			ConversationID *uint  `json:"conversationId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "chatId and content are required"})
			return
		}
		phone := utils.NormalizePhone(body.ChatID)
		if phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "chatId must contain a phone number"})
			return
		}

		res, err := gw.SendText(c.Request.Context(), phone+"@c.us", body.Content)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		msgID := res.ID.String()
		if msgID == "" {
			// the gateway answered 2xx without an id; fabricate one so the
			// dedup index stays usable
			msgID = "out_" + uuid.NewString()
		}

		now := time.Now()
		conv, err := conversationForSend(db, body.ConversationID, phone, body.Content, now)
		if err != nil {
			log.Printf("[whatsapp] send persisted at gateway but conversation lookup failed: %v", err)
			c.JSON(http.StatusOK, gin.H{"success": true, "id": msgID})
			return
		}

		msg := models.Message{
			ConversationID: conv.ID,
			Direction:      models.DirectionOutgoing,
			Content:        body.Content,
			MessageType:    "text",
			WahaMessageID:  msgID,
			Timestamp:      now,
			Status:         "sent",
		}
		dbres := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "waha_message_id"}},
			DoNothing: true,
		}).Create(&msg)
		if dbres.Error != nil {
			log.Printf("[whatsapp] outgoing message insert failed: %v", dbres.Error)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "id": msgID, "conversation_id": conv.ID})
	}
}

// conversationForSend resolves the conversation an outbound message belongs
// to, preferring an explicit id, and stamps the outgoing preview on it.
func conversationForSend(db *gorm.DB, convID *uint, phone, preview string, ts time.Time) (*models.Conversation, error) {
	var conv models.Conversation
	if convID != nil {
		if err := db.First(&conv, *convID).Error; err != nil {
			return nil, err
		}
	} else if err := db.Where("phone = ?", phone).First(&conv).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		conv = models.Conversation{Phone: phone, ContactName: phone}
	}

	if conv.ID == 0 {
		conv.LastMessageAt = ts
		conv.LastMessagePreview = preview
		if err := db.Create(&conv).Error; err != nil {
			return nil, err
		}
		return &conv, nil
	}

	err := db.Model(&models.Conversation{}).Where("id = ?", conv.ID).Updates(map[string]any{
		"last_message_at":      ts,
		"last_message_preview": preview,
		"unread_count":         0,
	}).Error
	return &conv, err
}

// TriggerSync runs the reconciliation job synchronously; operators use it to
// bootstrap and to recover from missed webhook deliveries.
func TriggerSync(sync *svc.SyncService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := sync.Run(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"synced":         res.Synced,
			"linked":         res.Linked,
			"messagesSynced": res.MessagesSynced,
		})
	}
}
