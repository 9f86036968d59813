package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type FoodItem struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	Name      string          `gorm:"column:name"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Category  string          `gorm:"column:category"`
	Image     string          `gorm:"column:image"`
	Available bool            `gorm:"column:available"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (FoodItem) TableName() string { return "food_items" }
