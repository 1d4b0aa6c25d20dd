package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"InmoCRM/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func newInboxRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.GET("/api/conversations", ListConversations(db))
	r.GET("/api/conversations/:conversation_id", GetConversation(db))
	r.POST("/api/conversations/:conversation_id/read", MarkConversationRead(db))
	r.POST("/api/conversations/:conversation_id/tags", AssignTag(db))
	r.DELETE("/api/conversations/:conversation_id/tags/:tag_id", RemoveTag(db))
	r.POST("/api/conversations/:conversation_id/lead", LinkLead(db))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func seedConversation(t *testing.T, db *gorm.DB, phone, name string, lastAt time.Time) models.Conversation {
	t.Helper()
	conv := models.Conversation{Phone: phone, ContactName: name, LastMessageAt: lastAt}
	if err := db.Create(&conv).Error; err != nil {
		t.Fatalf("seed conversation %s: %v", phone, err)
	}
	return conv
}

func TestListConversationsOrderAndSearch(t *testing.T) {
	db := newTestDB(t)
	r := newInboxRouter(db)
	seedConversation(t, db, "549111", "Ana Torres", time.Unix(1000, 0))
	seedConversation(t, db, "549222", "Bruno Diaz", time.Unix(2000, 0))

	w := doJSON(t, r, http.MethodGet, "/api/conversations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0]["phone"] != "549222" {
		t.Fatalf("expected newest conversation first, got %+v", list)
	}

	w = doJSON(t, r, http.MethodGet, "/api/conversations?q=ana", "")
	list = nil
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 || list[0]["contact_name"] != "Ana Torres" {
		t.Fatalf("search result = %+v", list)
	}
}

func TestListConversationsTagFilter(t *testing.T) {
	db := newTestDB(t)
	r := newInboxRouter(db)
	tagged := seedConversation(t, db, "549111", "Ana", time.Unix(1000, 0))
	seedConversation(t, db, "549222", "Bruno", time.Unix(2000, 0))
	tag := models.Tag{Name: "comprador", Color: "#00aa00"}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	if err := db.Model(&tagged).Association("Tags").Append(&tag); err != nil {
		t.Fatalf("attach tag: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/conversations?tag="+itoa(tag.ID), "")
	var list []map[string]any
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 || list[0]["phone"] != "549111" {
		t.Fatalf("tag filter result = %+v", list)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/conversations?tag=comprador", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric tag filter: status = %d, want 400", w.Code)
	}
}

func TestGetConversationMessagePage(t *testing.T) {
	db := newTestDB(t)
	r := newInboxRouter(db)
	conv := seedConversation(t, db, "549111", "Ana", time.Unix(3000, 0))
	for i, body := range []string{"uno", "dos", "tres"} {
		msg := models.Message{
			ConversationID: conv.ID,
			Direction:      models.DirectionIncoming,
			Content:        body,
			WahaMessageID:  body,
			Timestamp:      time.Unix(int64(1000*(i+1)), 0),
		}
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/conversations/"+itoa(conv.ID)+"?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Messages []map[string]any `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// limit keeps the two newest, rendered oldest first
	if len(body.Messages) != 2 || body.Messages[0]["content"] != "dos" || body.Messages[1]["content"] != "tres" {
		t.Fatalf("message page = %+v", body.Messages)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/conversations/9999", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing conversation: status = %d, want 404", w.Code)
	}
}

func TestMarkConversationRead(t *testing.T) {
	db := newTestDB(t)
	r := newInboxRouter(db)
	conv := seedConversation(t, db, "549111", "Ana", time.Unix(1000, 0))
	db.Model(&conv).Update("unread_count", 5)

	if w := doJSON(t, r, http.MethodPost, "/api/conversations/"+itoa(conv.ID)+"/read", ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var after models.Conversation
	db.First(&after, conv.ID)
	if after.UnreadCount != 0 {
		t.Fatalf("unread = %d, want 0", after.UnreadCount)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/conversations/9999/read", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing conversation: status = %d, want 404", w.Code)
	}
}

func TestAssignTagIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	r := newInboxRouter(db)
	conv := seedConversation(t, db, "549111", "Ana", time.Unix(1000, 0))
	tag := models.Tag{Name: "visita", Color: "#ffaa00"}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}

	body := `{"tag_id":` + itoa(tag.ID) + `}`
	for i := 0; i < 2; i++ {
		if w := doJSON(t, r, http.MethodPost, "/api/conversations/"+itoa(conv.ID)+"/tags", body); w.Code != http.StatusOK {
			t.Fatalf("assign %d: status = %d", i, w.Code)
		}
	}
	count := db.Model(&conv).Association("Tags").Count()
	if count != 1 {
		t.Fatalf("tag associations = %d, want 1", count)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/conversations/"+itoa(conv.ID)+"/tags", `{"tag_id":9999}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown tag: status = %d, want 404", w.Code)
	}
}

func TestRemoveTag(t *testing.T) {
	db := newTestDB(t)
	r := newInboxRouter(db)
	conv := seedConversation(t, db, "549111", "Ana", time.Unix(1000, 0))
	tag := models.Tag{Name: "alquiler"}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	if err := db.Model(&conv).Association("Tags").Append(&tag); err != nil {
		t.Fatalf("attach tag: %v", err)
	}

	if w := doJSON(t, r, http.MethodDelete, "/api/conversations/"+itoa(conv.ID)+"/tags/"+itoa(tag.ID), ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if count := db.Model(&conv).Association("Tags").Count(); count != 0 {
		t.Fatalf("tag associations = %d, want 0", count)
	}
}

func TestLinkLeadManualOverrideAndUnlink(t *testing.T) {
	db := newTestDB(t)
	r := newInboxRouter(db)
	conv := seedConversation(t, db, "549111", "Ana", time.Unix(1000, 0))
	lead := models.Lead{Name: "Ana Torres"}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/conversations/"+itoa(conv.ID)+"/lead", `{"lead_id":`+itoa(lead.ID)+`}`); w.Code != http.StatusOK {
		t.Fatalf("link: status = %d", w.Code)
	}
	var after models.Conversation
	db.First(&after, conv.ID)
	if after.LeadID == nil || *after.LeadID != lead.ID {
		t.Fatalf("lead not linked: %v", after.LeadID)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/conversations/"+itoa(conv.ID)+"/lead", `{"lead_id":null}`); w.Code != http.StatusOK {
		t.Fatalf("unlink: status = %d", w.Code)
	}
	db.First(&after, conv.ID)
	if after.LeadID != nil {
		t.Fatalf("lead still linked after unlink: %v", *after.LeadID)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/conversations/"+itoa(conv.ID)+"/lead", `{"lead_id":9999}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown lead: status = %d, want 404", w.Code)
	}
}

func itoa(id uint) string {
	return strconv.Itoa(int(id))
}
