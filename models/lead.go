package models

import "gorm.io/gorm"

// Lead is a CRM prospect. Phone and Mobile are free-text fields filled by
// agents, which is why conversation linkage matches by digit substring.
type Lead struct {
	gorm.Model
	Name             string `gorm:"size:200;not null"`
	Phone            string `gorm:"size:60"`
	Mobile           string `gorm:"size:60"`
	Email            string `gorm:"size:120"`
	Source           string `gorm:"size:80"`
	PropertyInterest string `gorm:"size:200"`
	Notes            string `gorm:"type:text"`
}
