package models

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
)

// Category groups menu items on the published menu.
type Category struct {
	gorm.Model
	Name       string `gorm:"unique_index;not null"`
	IsBeverage bool
	SortOrder  int
}

// TableName sets the table name for Category
func (Category) TableName() string {
	return "menu_categories"
}

// MenuItem is a dish saved from the extraction wizard or entered by hand.
type MenuItem struct {
	gorm.Model
	NameEnglish    string `gorm:"not null;index"`
	NameLocal      string
	Description    string `gorm:"type:text"`
	Price          float64
	CategoryID     uint
	Category       Category    `gorm:"foreignkey:CategoryID"`
	Ingredients    StringSlice `gorm:"type:text"`
	DietaryTags    StringSlice `gorm:"type:text"`
	IsVegetarian   bool
	IsSpicy        bool
	Confidence     float64
	SourceImageRef string
	Available      bool `gorm:"default:true"`
}

// TableName sets the table name for MenuItem
func (MenuItem) TableName() string {
	return "menu_items"
}

// ValidateMenuItem checks the fields the database cannot enforce.
func ValidateMenuItem(item *MenuItem) error {
	if strings.TrimSpace(item.NameEnglish) == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.Price < 0 {
		return fmt.Errorf("menu item price cannot be negative")
	}
	if item.CategoryID == 0 {
		return fmt.Errorf("menu item category is required")
	}
	return nil
}
