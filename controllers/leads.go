package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"InmoCRM/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ListLeads(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		tx := db.Order("id DESC")
		if q != "" {
			p := "%" + strings.ToLower(q) + "%"
			tx = tx.Where("lower(name) LIKE ? OR phone LIKE ? OR mobile LIKE ? OR lower(email) LIKE ?", p, p, p, p)
		}
		var leads []models.Lead
		if err := tx.Find(&leads).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		result := make([]gin.H, 0, len(leads))
		for _, l := range leads {
			result = append(result, leadBody(l))
		}
		c.JSON(http.StatusOK, result)
	}
}

func GetLead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		lid, _ := strconv.Atoi(c.Param("lead_id"))
		var lead models.Lead
		if err := db.First(&lead, lid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "lead not found"})
			return
		}
		c.JSON(http.StatusOK, leadBody(lead))
	}
}

func CreateLead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Name             string `json:"name"`
			Phone            string `json:"phone"`
			Mobile           string `json:"mobile"`
			Email            string `json:"email"`
			Source           string `json:"source"`
			PropertyInterest string `json:"property_interest"`
			Notes            string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "name is required"})
			return
		}
		lead := models.Lead{
			Name:             strings.TrimSpace(body.Name),
			Phone:            body.Phone,
			Mobile:           body.Mobile,
			Email:            strings.TrimSpace(strings.ToLower(body.Email)),
			Source:           body.Source,
			PropertyInterest: body.PropertyInterest,
			Notes:            body.Notes,
		}
		if err := db.Create(&lead).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create lead"})
			return
		}
		c.JSON(http.StatusCreated, leadBody(lead))
	}
}

func leadBody(l models.Lead) gin.H {
	return gin.H{
		"id":                l.ID,
		"name":              l.Name,
		"phone":             l.Phone,
		"mobile":            l.Mobile,
		"email":             l.Email,
		"source":            l.Source,
		"property_interest": l.PropertyInterest,
		"notes":             l.Notes,
	}
}
