package domain

import "time"

type Category string

const (
	CategoryHotel  Category = "hotel"
	CategoryFlight Category = "flight"
	CategoryEvent  Category = "event"
)

func ValidCategory(c Category) bool {
	switch c {
	case CategoryHotel, CategoryFlight, CategoryEvent:
		return true
	}
	return false
}

type CatalogItem struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Category  Category `gorm:"index;size:16"`
	UnitPrice int64    // cents
	Remaining int      // remaining capacity, never negative
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SeedMarker keys the idempotent startup seed; its presence means the
// catalog rows were already inserted on a previous boot.
type SeedMarker struct {
	Key      string `gorm:"primaryKey;size:32"`
	SeededAt time.Time
}
