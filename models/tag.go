package models

import "gorm.io/gorm"

type Tag struct {
	gorm.Model
	Name  string `gorm:"uniqueIndex;size:80;not null"`
	Color string `gorm:"size:20"`
}
