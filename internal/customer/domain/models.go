package domain

import (
	"time"
)

type Customer struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	Phone     *string   `gorm:"type:text;uniqueIndex:ux_customers_phone" json:"phone,omitempty"`
	Email     *string   `gorm:"type:text;index:idx_customers_email" json:"email,omitempty"`
	Points    int64     `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }
