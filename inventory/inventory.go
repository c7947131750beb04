package inventory

import "strings"

// Item status values understood by the backend. Imported rows may carry other
// upper-cased values; those are passed through unchecked.
const (
	StatusAvailable = "AVAILABLE"
	StatusDraft     = "DRAFT"
	StatusSoldOut   = "SOLD_OUT"
)

// Store status values.
const (
	StoreStatusDraft     = "DRAFT"
	StoreStatusPublished = "PUBLISHED"
)

const DefaultCurrency = "EUR"

// Location is a point on the map shared by a store and all items it owns.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Item is the normalized inventory record sent to the backend.
type Item struct {
	ID               string   `json:"id,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"shortDescription"`
	SKU              string   `json:"sku"`
	Price            float64  `json:"price"`
	Currency         string   `json:"currency"`
	Quantity         int      `json:"quantity"`
	Category         string   `json:"category"`
	Tags             []string `json:"tags"`
	Status           string   `json:"status"`
	Images           []string `json:"images"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
}

type Store struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (s Store) Location() Location {
	return Location{Latitude: s.Latitude, Longitude: s.Longitude}
}

func (s Store) IsPublished() bool {
	return s.Status == StoreStatusPublished
}

// NormalizeStoreStatus maps user input to a store status value. "publish" and
// "unpublish" are accepted as aliases.
func NormalizeStoreStatus(raw string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case StoreStatusPublished, "PUBLISH":
		return StoreStatusPublished, true
	case StoreStatusDraft, "UNPUBLISH":
		return StoreStatusDraft, true
	}
	return "", false
}

// DefaultItemStatus is the status a new item gets in a store: items of a draft
// store start as drafts.
func (s Store) DefaultItemStatus() string {
	if s.Status == StoreStatusDraft {
		return StatusDraft
	}
	return StatusAvailable
}
