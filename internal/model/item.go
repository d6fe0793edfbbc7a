package model

import (
	"errors"
	"time"
)

// Item represents a tracked possession stored at exactly one location.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Quantity    int        `json:"quantity"`
	Condition   string     `json:"condition"`
	LocationID  int64      `json:"location_id"`
	ImageMime   string     `json:"image_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Joined field (not always populated).
	LocationName string `json:"location_name,omitempty"`
}

// Conditions.
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionDamaged   = "damaged"
	ConditionPoor      = "poor"
)

// Conditions lists all valid item conditions.
var Conditions = []string{
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionDamaged,
	ConditionPoor,
}

// Quantity bounds.
const (
	MinQuantity = 1
	MaxQuantity = 10000
)

// ValidCondition reports whether s is a known condition.
func ValidCondition(s string) bool {
	for _, c := range Conditions {
		if s == c {
			return true
		}
	}
	return false
}

// ValidateQuantity checks that quantity is within bounds.
func ValidateQuantity(q int) error {
	if q < MinQuantity {
		return errors.New("quantity must be greater than 0")
	}
	if q > MaxQuantity {
		return errors.New("quantity is too large (max 10000)")
	}
	return nil
}
