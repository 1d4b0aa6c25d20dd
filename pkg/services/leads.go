package services

import (
	"log"

	"InmoCRM/models"

	"gorm.io/gorm"
)

// minMatchDigits guards the fuzzy lookup against short numbers: a 4-digit
// fragment matches far too many leads to be meaningful.
const minMatchDigits = 6

// MatchLeadByPhone fuzzily links a phone number to a lead by substring match
// against the two free-text phone fields agents fill in. Best effort: any
// lookup failure means "no match", and a tie resolves to the lowest id.
// Known risk: shared prefixes across leads can still pick the wrong one.
func MatchLeadByPhone(db *gorm.DB, phone string) *models.Lead {
	if len(phone) < minMatchDigits {
		return nil
	}
	pattern := "%" + phone + "%"
	var lead models.Lead
	err := db.Where("lower(phone) LIKE lower(?) OR lower(mobile) LIKE lower(?)", pattern, pattern).
		Order("id").First(&lead).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("[leads] phone match lookup failed for %s: %v", phone, err)
		}
		return nil
	}
	log.Printf("[leads] matched phone %s to lead %d (%s)", phone, lead.ID, lead.Name)
	return &lead
}
