package domain

import "time"

// Item is a stock-tracked product. Quantity never drops below zero.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ItemFilter narrows a catalogue listing. Empty fields match everything.
type ItemFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// ItemPatch carries the fields of a partial update; nil means unchanged.
type ItemPatch struct {
	Name        *string
	Category    *string
	Price       *float64
	Quantity    *int
	Description *string
	ImageURL    *string
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil &&
		p.Quantity == nil && p.Description == nil && p.ImageURL == nil
}
