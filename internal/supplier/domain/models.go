package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Supplier is a vendor purchase orders are addressed to.
type Supplier struct {
	ID       snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name     string            `gorm:"not null" json:"name"`
	Email    string            `gorm:"not null" json:"email"`
	FiscalID string            `gorm:"column:fiscal_id" json:"fiscal_id,omitempty"`
	Address  string            `gorm:"type:text" json:"address,omitempty"`
	Metadata datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Supplier) TableName() string { return "suppliers" }
