package models

import "github.com/jinzhu/gorm"

// Staff is a member of the hotel team who can be assigned tasks.
type Staff struct {
	gorm.Model
	Name       string `gorm:"not null"`
	Role       string
	Department string `gorm:"index"`
	Active     bool   `gorm:"default:true"`
}

// TableName sets the table name for Staff
func (Staff) TableName() string {
	return "staff"
}
