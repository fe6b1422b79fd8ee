package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/common"
)

// JournalEntry is one beer the user drank.
type JournalEntry struct {
	SyncMeta

	BeerID      string   `json:"beerId"`
	BeerName    string   `json:"beerName"`
	Brewery     string   `json:"brewery"`
	Style       string   `json:"style"`
	ABV         float64  `json:"abv"`
	IBU         *float64 `json:"ibu,omitempty"`
	Rating      Rating   `json:"rating"`
	Appearance  string   `json:"appearance,omitempty"`
	Aroma       string   `json:"aroma,omitempty"`
	Taste       string   `json:"taste,omitempty"`
	Mouthfeel   string   `json:"mouthfeel,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Location    string   `json:"location,omitempty"`
	ServingType string   `json:"servingType,omitempty"`
	Glassware   string   `json:"glassware,omitempty"`
	PairingFood string   `json:"pairingFood,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`

	DrankAt time.Time `json:"drankAt"`
}

// Validate checks the fields a journal entry cannot be saved without: a beer
// name, a rating in range and a sane ABV.
func (e *JournalEntry) Validate() error {
	if strings.TrimSpace(e.BeerName) == "" {
		return fmt.Errorf("%w: beer name is required", common.ErrInvalidRecord)
	}
	if math.IsNaN(e.ABV) || e.ABV < 0 || e.ABV > 100 {
		return fmt.Errorf("%w: abv out of range", common.ErrInvalidRecord)
	}
	return e.Rating.Validate()
}
