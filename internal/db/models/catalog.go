package models

import (
	"time"

	"gorm.io/datatypes"
)

// Category of products.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// Product owns one optional image blob. Deleting the category deletes the product.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	CategoryID  uint      `gorm:"not null;index" json:"categoryId"`
	Category    *Category `gorm:"constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	Description *string   `gorm:"type:text" json:"description"`
	// Image is a blob ref below product_images/, empty when unset.
	Image string `gorm:"size:255" json:"image"`
}

// Subject taught by teachers. CreatedBy and UpdatedBy are cleared when the user is deleted.
type Subject struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SubjectName string    `gorm:"size:100;not null" json:"subjectName"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedByID *uint64   `json:"createdBy"`
	CreatedBy   *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UpdatedByID *uint64   `json:"updatedBy"`
	UpdatedBy   *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// Gender values of a teacher.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

// Teacher owns one optional photo blob. Deleting the subject deletes the teacher.
type Teacher struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FirstName   string         `gorm:"size:100;not null" json:"firstName"`
	LastName    string         `gorm:"size:100;not null" json:"lastName"`
	Gender      string         `gorm:"size:1;not null" json:"gender"`
	DateOfBirth datatypes.Date `json:"dateOfBirth"`
	Salary      float64        `gorm:"type:decimal(10,2);not null" json:"salary"`
	// Photo is a blob ref below teacher_photos/, empty when unset.
	Photo       string    `gorm:"size:255" json:"photo"`
	SubjectID   uint      `gorm:"not null;index" json:"subjectId"`
	Subject     *Subject  `gorm:"constraint:OnDelete:CASCADE" json:"subject,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedByID *uint64   `json:"createdBy"`
	CreatedBy   *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UpdatedByID *uint64   `json:"updatedBy"`
	UpdatedBy   *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}
