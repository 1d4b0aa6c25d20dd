package controllers

import (
	"net/http"
	"testing"
	"time"

	"InmoCRM/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func newTagRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.GET("/api/tags", ListTags(db))
	r.POST("/api/tags", CreateTag(db))
	r.DELETE("/api/tags/:tag_id", DeleteTag(db))
	return r
}

func TestCreateTagRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	r := newTagRouter(db)

	if w := doJSON(t, r, http.MethodPost, "/api/tags", `{"name":"comprador","color":"#00aa00"}`); w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/api/tags", `{"name":"comprador"}`); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: status = %d, want 409", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/tags", `{"name":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank name: status = %d, want 400", w.Code)
	}
}

func TestDeleteTagClearsAssignments(t *testing.T) {
	db := newTestDB(t)
	r := newTagRouter(db)
	conv := seedConversation(t, db, "549111", "Ana", time.Unix(1000, 0))
	tag := models.Tag{Name: "visita"}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	if err := db.Model(&conv).Association("Tags").Append(&tag); err != nil {
		t.Fatalf("attach tag: %v", err)
	}

	if w := doJSON(t, r, http.MethodDelete, "/api/tags/"+itoa(tag.ID), ""); w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}

	var orphans int64
	db.Raw("SELECT COUNT(*) FROM conversation_tags WHERE tag_id = ?", tag.ID).Scan(&orphans)
	if orphans != 0 {
		t.Fatalf("join rows left behind: %d", orphans)
	}
	if w := doJSON(t, r, http.MethodDelete, "/api/tags/"+itoa(tag.ID), ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: status = %d, want 404", w.Code)
	}
}
