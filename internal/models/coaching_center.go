package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// CoachingCenter is a listing shown in coaching-center discovery and search.
type CoachingCenter struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	City        string    `gorm:"size:120;index" json:"city"`
	Address     string    `gorm:"size:255" json:"address"`
	SubjectsRaw string    `gorm:"column:subjects;type:text" json:"-"`
	Subjects    []string  `gorm:"-" json:"subjects"`
	Rating      float64   `gorm:"not null;default:0;index" json:"rating"`
	ReviewCount int       `gorm:"not null;default:0" json:"review_count"`
	IsVerified  bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeSave keeps the raw subject column in sync with the slice.
func (c *CoachingCenter) BeforeSave(tx *gorm.DB) error {
	c.SubjectsRaw = encodeSubjects(c.Subjects)
	return nil
}

// AfterFind expands the raw subject column.
func (c *CoachingCenter) AfterFind(tx *gorm.DB) error {
	c.Subjects = decodeSubjects(c.SubjectsRaw)
	return nil
}

// subjects are stored as ",math,physics," so a LIKE '%,math,%' matches whole tags.
func encodeSubjects(subjects []string) string {
	cleaned := make([]string, 0, len(subjects))
	seen := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		normalized := strings.ToLower(strings.TrimSpace(subject))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		cleaned = append(cleaned, normalized)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "," + strings.Join(cleaned, ",") + ","
}

func decodeSubjects(raw string) []string {
	trimmed := strings.Trim(raw, ",")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, ",")
}
