package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"InmoCRM/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListConversations returns the inbox ordered by last activity. Supports
// ?q= text search over contact name and phone and ?tag= filtering by tag id.
func ListConversations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		tagIDStr := strings.TrimSpace(c.Query("tag"))

		tx := db.Preload("Tags").Order("last_message_at DESC")
		if q != "" {
			p := "%" + strings.ToLower(q) + "%"
			tx = tx.Where("lower(contact_name) LIKE ? OR phone LIKE ?", p, p)
		}
		if tagIDStr != "" {
			tagID, err := strconv.Atoi(tagIDStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "tag must be an id"})
				return
			}
			tx = tx.Joins("JOIN conversation_tags ct ON ct.conversation_id = conversations.id AND ct.tag_id = ?", tagID)
		}

		var convs []models.Conversation
		if err := tx.Find(&convs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}

		result := make([]gin.H, 0, len(convs))
		for _, conv := range convs {
			result = append(result, conversationSummary(conv))
		}
		c.JSON(http.StatusOK, result)
	}
}

func conversationSummary(conv models.Conversation) gin.H {
	tags := make([]gin.H, 0, len(conv.Tags))
	for _, t := range conv.Tags {
		tags = append(tags, gin.H{"id": t.ID, "name": t.Name, "color": t.Color})
	}
	return gin.H{
		"id":                   conv.ID,
		"phone":                conv.Phone,
		"contact_name":         conv.ContactName,
		"avatar_url":           conv.AvatarURL,
		"lead_id":              conv.LeadID,
		"last_message_at":      conv.LastMessageAt,
		"last_message_preview": conv.LastMessagePreview,
		"unread_count":         conv.UnreadCount,
		"tags":                 tags,
	}
}

// GetConversation returns one conversation with its recent messages,
// newest last. ?limit caps the page (default 50).
func GetConversation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid, _ := strconv.Atoi(c.Param("conversation_id"))
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit <= 0 {
			limit = 50
		}

		var conv models.Conversation
		if err := db.Preload("Tags").First(&conv, cid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
			return
		}

		var msgs []models.Message
		if err := db.Where("conversation_id = ?", conv.ID).
			Order("timestamp DESC").Limit(limit).Find(&msgs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		// fetched newest-first for the limit, rendered oldest-first
		messages := make([]gin.H, 0, len(msgs))
		for i := len(msgs) - 1; i >= 0; i-- {
			m := msgs[i]
			messages = append(messages, gin.H{
				"id":              m.ID,
				"direction":       m.Direction,
				"content":         m.Content,
				"message_type":    m.MessageType,
				"waha_message_id": m.WahaMessageID,
				"timestamp":       m.Timestamp,
				"status":          m.Status,
			})
		}

		body := conversationSummary(conv)
		body["messages"] = messages
		c.JSON(http.StatusOK, body)
	}
}

// MarkConversationRead zeroes the unread counter.
func MarkConversationRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid, _ := strconv.Atoi(c.Param("conversation_id"))
		res := db.Model(&models.Conversation{}).Where("id = ?", cid).Update("unread_count", 0)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "marked read"})
	}
}

// AssignTag adds a tag to a conversation; repeating the call is a no-op.
func AssignTag(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid, _ := strconv.Atoi(c.Param("conversation_id"))
		var body struct {
			TagID uint `json:"tag_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.TagID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "tag_id is required"})
			return
		}

		var conv models.Conversation
		if err := db.First(&conv, cid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
			return
		}
		var tag models.Tag
		if err := db.First(&tag, body.TagID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "tag not found"})
			return
		}

		if err := db.Model(&conv).Association("Tags").Append(&tag); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to assign tag"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "tag assigned"})
	}
}

// RemoveTag detaches a tag from a conversation.
func RemoveTag(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid, _ := strconv.Atoi(c.Param("conversation_id"))
		tid, _ := strconv.Atoi(c.Param("tag_id"))

		var conv models.Conversation
		if err := db.First(&conv, cid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
			return
		}
		if err := db.Model(&conv).Association("Tags").Delete(&models.Tag{Model: gorm.Model{ID: uint(tid)}}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to remove tag"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "tag removed"})
	}
}

// LinkLead manually links (or with lead_id=null unlinks) a lead. Automatic
// linkage only happens on first contact, so corrections go through here.
func LinkLead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid, _ := strconv.Atoi(c.Param("conversation_id"))
		var body struct {
			LeadID *uint `json:"lead_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		var conv models.Conversation
		if err := db.First(&conv, cid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
			return
		}
		if body.LeadID != nil {
			var lead models.Lead
			if err := db.First(&lead, *body.LeadID).Error; err != nil {
				c.JSON(http.StatusNotFound, gin.H{"msg": "lead not found"})
				return
			}
		}
		if err := db.Model(&conv).Update("lead_id", body.LeadID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "lead link updated"})
	}
}
