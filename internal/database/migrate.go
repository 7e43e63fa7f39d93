package database

import (
	"fmt"
	"time"

	"hotelops/internal/models"

	"github.com/jinzhu/gorm"
)

// Migrate creates and updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.MenuItem{},
		&models.Staff{},
		&models.Task{},
		&models.TaskRecommendation{},
		&models.TaskEvent{},
	).Error; err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// DefaultCategories is the category list created on first start.
var DefaultCategories = []models.Category{
	{Name: "Appetizers", SortOrder: 1},
	{Name: "Soups", SortOrder: 2},
	{Name: "Salads", SortOrder: 3},
	{Name: "Main Course", SortOrder: 4},
	{Name: "Rice", SortOrder: 5},
	{Name: "Noodles", SortOrder: 6},
	{Name: "Curries", SortOrder: 7},
	{Name: "Seafood", SortOrder: 8},
	{Name: "Chicken", SortOrder: 9},
	{Name: "Desserts", SortOrder: 10},
	{Name: "Beverages", IsBeverage: true, SortOrder: 11},
}

// Seed ensures essential data exists in the database. Existing rows are never touched.
func Seed(db *gorm.DB) error {
	var categoryCount int
	db.Model(&models.Category{}).Count(&categoryCount)
	if categoryCount == 0 {
		for _, c := range DefaultCategories {
			c := c
			if err := db.Create(&c).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
		}
	}

	var staffCount int
	db.Model(&models.Staff{}).Count(&staffCount)
	if staffCount == 0 {
		if err := seedStaffAndTasks(db); err != nil {
			return err
		}
	}
	return nil
}

func seedStaffAndTasks(db *gorm.DB) error {
	tx := db.Begin()
	staff := []models.Staff{
		{Name: "Anura Perera", Role: "Room Attendant", Department: "cleaning", Active: true},
		{Name: "Dilani Silva", Role: "Housekeeping Supervisor", Department: "cleaning", Active: true},
		{Name: "Kasun Fernando", Role: "Technician", Department: "Maintenance", Active: true},
		{Name: "Nimali Jayasinghe", Role: "Guest Services Agent", Department: "service", Active: true},
		{Name: "Saman Kumara", Role: "Chef de Partie", Department: "Kitchen", Active: true},
	}
	for i := range staff {
		if err := tx.Create(&staff[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("seed staff: %w", err)
		}
	}

	due := time.Now().Add(3 * time.Hour)
	tasks := []models.Task{
		{
			Title:      "Deep clean room 204",
			Department: "cleaning",
			Priority:   "high",
			Status:     string(models.TaskStatusPending),
			DueDate:    &due,
			Recommendations: []models.TaskRecommendation{
				{StaffID: staff[0].ID, Rank: 1, MatchScore: 94},
				{StaffID: staff[1].ID, Rank: 2, MatchScore: 81},
			},
		},
		{
			Title:          "Guest reports AC not cooling in 312",
			Department:     "Maintenance",
			Priority:       "urgent",
			Status:         string(models.TaskStatusPending),
			IsWorkflowTask: true,
		},
		{
			Title:      "Restock breakfast buffet",
			Department: "Kitchen",
			Priority:   "medium",
			Status:     string(models.TaskStatusPending),
		},
	}
	for i := range tasks {
		if err := tx.Create(&tasks[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("seed tasks: %w", err)
		}
	}
	return tx.Commit().Error
}
