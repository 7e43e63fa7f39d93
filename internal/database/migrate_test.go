package database

import (
	"testing"

	"hotelops/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_Idempotent(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Seed(db))
	require.NoError(t, Seed(db))

	var categories, staff, tasks int
	db.Model(&models.Category{}).Count(&categories)
	db.Model(&models.Staff{}).Count(&staff)
	db.Model(&models.Task{}).Count(&tasks)
	assert.Equal(t, len(DefaultCategories), categories)
	assert.Equal(t, 5, staff)
	assert.Equal(t, 3, tasks)

	var beverages models.Category
	require.NoError(t, db.Where("name = ?", "Beverages").First(&beverages).Error)
	assert.True(t, beverages.IsBeverage)

	var recs int
	db.Model(&models.TaskRecommendation{}).Count(&recs)
	assert.Equal(t, 2, recs)
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "root@/hotel")
	assert.Error(t, err)
}
