package store

import (
	"context"
	"strings"
	"time"

	"hotelops/internal/extraction"
	"hotelops/internal/models"

	"github.com/jinzhu/gorm"
)

// MenuItem is the listing view of a saved menu item.
type MenuItem struct {
	ID             string    `json:"id"`
	NameEnglish    string    `json:"name_english"`
	NameLocal      string    `json:"name_local,omitempty"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	CategoryID     string    `json:"category_id"`
	Category       string    `json:"category"`
	Ingredients    []string  `json:"ingredients"`
	DietaryTags    []string  `json:"dietary_tags"`
	IsVegetarian   bool      `json:"is_vegetarian"`
	IsSpicy        bool      `json:"is_spicy"`
	SourceImageRef string    `json:"source_image_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// MenuStore saves and lists menu items.
type MenuStore struct {
	db *gorm.DB
}

func NewMenuStore(db *gorm.DB) *MenuStore {
	return &MenuStore{db: db}
}

// ListCategories returns categories in menu order.
func (s *MenuStore) ListCategories(ctx context.Context) ([]extraction.CategoryRef, error) {
	var rows []models.Category
	if err := s.db.Order("sort_order asc, id asc").Find(&rows).Error; err != nil {
		return nil, dbError("list categories", err)
	}
	out := make([]extraction.CategoryRef, 0, len(rows))
	for _, c := range rows {
		out = append(out, extraction.CategoryRef{ID: formatID(c.ID), Name: c.Name, IsBeverage: c.IsBeverage})
	}
	return out, nil
}

// CreateMenuItem saves one candidate. The category may be an id or a name;
// unknown categories fall back the same way the normalizer does.
func (s *MenuStore) CreateMenuItem(ctx context.Context, c extraction.Candidate) (string, error) {
	name := strings.TrimSpace(c.NameEnglish)
	if name == "" {
		return "", invalid("name is required")
	}
	if c.Price < 0 {
		return "", invalid("price cannot be negative")
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		return "", err
	}
	if len(categories) == 0 {
		return "", invalid("no menu categories are configured")
	}
	categoryID, err := parseID("category", extraction.ResolveCategory(c.Category, categories))
	if err != nil {
		return "", err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return "", dbError("begin menu item insert", tx.Error)
	}
	var existing int
	if err := tx.Model(&models.MenuItem{}).Where("lower(name_english) = ?", strings.ToLower(name)).Count(&existing).Error; err != nil {
		tx.Rollback()
		return "", dbError("check duplicate menu item", err)
	}
	if existing > 0 {
		tx.Rollback()
		return "", conflict("an item named \"" + name + "\" already exists")
	}

	item := models.MenuItem{
		NameEnglish:    name,
		NameLocal:      strings.TrimSpace(c.NameLocal),
		Description:    strings.TrimSpace(c.Description),
		Price:          c.Price,
		CategoryID:     categoryID,
		Ingredients:    models.StringSlice(c.Ingredients),
		DietaryTags:    models.StringSlice(c.DietaryTags),
		IsVegetarian:   c.IsVegetarian,
		IsSpicy:        c.IsSpicy,
		Confidence:     c.Confidence,
		SourceImageRef: c.SourceImageRef,
		Available:      true,
	}
	if err := models.ValidateMenuItem(&item); err != nil {
		tx.Rollback()
		return "", invalid(err.Error())
	}
	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		return "", dbError("create menu item", err)
	}
	if err := tx.Commit().Error; err != nil {
		return "", dbError("create menu item", err)
	}
	return formatID(item.ID), nil
}

// ListMenuItems returns all items ordered by category then name.
func (s *MenuStore) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	var rows []models.MenuItem
	err := s.db.Preload("Category").
		Select("menu_items.*").
		Joins("LEFT JOIN menu_categories ON menu_categories.id = menu_items.category_id").
		Order("menu_categories.sort_order asc, menu_items.name_english asc").
		Find(&rows).Error
	if err != nil {
		return nil, dbError("list menu items", err)
	}
	out := make([]MenuItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, MenuItem{
			ID:             formatID(r.ID),
			NameEnglish:    r.NameEnglish,
			NameLocal:      r.NameLocal,
			Description:    r.Description,
			Price:          r.Price,
			CategoryID:     formatID(r.CategoryID),
			Category:       r.Category.Name,
			Ingredients:    nonNil(r.Ingredients),
			DietaryTags:    nonNil(r.DietaryTags),
			IsVegetarian:   r.IsVegetarian,
			IsSpicy:        r.IsSpicy,
			SourceImageRef: r.SourceImageRef,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, nil
}

func nonNil(s models.StringSlice) []string {
	if s == nil {
		return []string{}
	}
	return s
}
