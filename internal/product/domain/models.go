package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Product is a sellable (or purchasable) item. It carries either a tax
// group reference or a legacy single default rate; the group wins when
// both are set.
type Product struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"not null" json:"name"`
	Reference   string        `gorm:"type:text;uniqueIndex" json:"reference,omitempty"`
	UnitPrice   int64         `gorm:"column:unit_price;not null" json:"unit_price"` // cents
	DefaultRate float64       `gorm:"column:default_rate;not null;default:0" json:"default_rate"`
	TaxGroupID  *snowflake.ID `gorm:"column:tax_group_id;index" json:"tax_group_id,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }
