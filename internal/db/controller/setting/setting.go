// Package setting stores named application settings, such as the generated
// token signing secret, as opaque byte values.
package setting

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/catalog-admin/catalog-admin/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"

	// JWTSecret is the setting holding the generated token signing secret.
	JWTSecret = "jwt_secret"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingNameEmpty is returned when attempting to create/update a setting with an empty name.
	ErrSettingNameEmpty = errors.New("setting name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a setting by its name.
func Get(db *gorm.DB, name string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	var setting models.Setting

	result := db.Where(nameQueryPattern, name).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, result.Error
	}

	return &setting, nil
}

// GetAll retrieves all settings ordered by name.
func GetAll(db *gorm.DB) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting
	if err := db.Order("name").Find(&settings).Error; err != nil {
		return nil, err
	}

	return settings, nil
}

// Set creates or updates a setting by name (upsert operation).
func Set(db *gorm.DB, name string, value []byte) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	setting := &models.Setting{Name: name, Value: value}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(setting)
	if result.Error != nil {
		return nil, result.Error
	}

	return Get(db, name)
}

// Ensure returns the value of the setting name, creating it from gen first
// if it does not exist. Concurrent callers agree on the first stored value.
func Ensure(db *gorm.DB, name string, gen func() []byte) ([]byte, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrSettingNameEmpty
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Setting{Name: name, Value: gen()})
	if result.Error != nil {
		return nil, result.Error
	}

	setting, err := Get(db, name)
	if err != nil {
		return nil, err
	}

	return setting.Value, nil
}

// DeleteByName deletes a setting by name.
func DeleteByName(db *gorm.DB, name string) error {
	if db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrSettingNameEmpty
	}

	result := db.Where(nameQueryPattern, name).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}
