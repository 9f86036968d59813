package models

import "time"

// Member is a staff or chef account belonging to the restaurant.
type Member struct {
	ID       int64        `gorm:"primaryKey;column:id"`
	Username string       `gorm:"column:username"`
	Role     Role         `gorm:"column:role"`
	Email    string       `gorm:"column:email"`
	Action   ActionStatus `gorm:"column:action"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Member) TableName() string { return "members" }
