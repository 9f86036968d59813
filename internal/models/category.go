package models

import "time"

// Category forms a two-level tree through ParentCategory: top-level rows have
// a nil parent, subcategories point at a top-level id. Parent links are only
// ever set on creation upstream, so no cycle handling is required.
type Category struct {
	ID             int64  `gorm:"primaryKey;column:id"`
	Name           string `gorm:"column:name"`
	ParentCategory *int64 `gorm:"column:parent_category"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Category) TableName() string { return "categories" }

// IsSubCategory reports whether the category sits under a parent.
func (c Category) IsSubCategory() bool { return c.ParentCategory != nil }
