package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"InmoCRM/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ListTags(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tags []models.Tag
		if err := db.Order("name").Find(&tags).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		result := make([]gin.H, 0, len(tags))
		for _, t := range tags {
			result = append(result, gin.H{"id": t.ID, "name": t.Name, "color": t.Color})
		}
		c.JSON(http.StatusOK, result)
	}
}

func CreateTag(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "name is required"})
			return
		}

		tag := models.Tag{Name: strings.TrimSpace(body.Name), Color: body.Color}
		var exists models.Tag
		if err := db.Where("name = ?", tag.Name).First(&exists).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"msg": "tag already exists"})
			return
		} else if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		if err := db.Create(&tag).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create tag"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": tag.ID, "name": tag.Name, "color": tag.Color})
	}
}

func DeleteTag(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tid, _ := strconv.Atoi(c.Param("tag_id"))
		var tag models.Tag
		if err := db.First(&tag, tid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "tag not found"})
			return
		}
		// drop assignments first so no orphan rows remain in the join table
		if err := db.Exec("DELETE FROM conversation_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		if err := db.Delete(&tag).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to delete tag"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "tag deleted"})
	}
}
