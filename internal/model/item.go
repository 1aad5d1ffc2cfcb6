package model

import "time"

// Item is a persisted inventory record. ItemID is the user-facing identifier
// printed on the label, unique per owner; ID is the surrogate key.
type Item struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerUID        string    `gorm:"size:128;not null;uniqueIndex:idx_owner_item,priority:1"`
	ItemID          string    `gorm:"size:64;not null;uniqueIndex:idx_owner_item,priority:2"`
	Title           string    `gorm:"size:120;not null"`
	Description     string    `gorm:"type:text;not null"`
	Vendor          string    `gorm:"size:120;not null"`
	ManufactureDate string    `gorm:"size:10;not null"`
	Categories      string    `gorm:"size:512"`
	Subcategories   string    `gorm:"size:512"`
	ImageURL        *string   `gorm:"size:512"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Item) TableName() string {
	return "inventory_items"
}
