package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/common"
)

// Bar is a venue the user visited. The sub-scores share the Rating scale.
type Bar struct {
	SyncMeta

	Name          string   `json:"name"`
	Address       string   `json:"address,omitempty"`
	City          string   `json:"city,omitempty"`
	Country       string   `json:"country,omitempty"`
	Rating        Rating   `json:"rating"`
	Atmosphere    Rating   `json:"atmosphere"`
	BeerSelection Rating   `json:"beerSelection"`
	FoodQuality   *Rating  `json:"foodQuality,omitempty"`
	Service       Rating   `json:"service"`
	PriceRange    string   `json:"priceRange,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	FavoriteBeers []string `json:"favoriteBeers,omitempty"`
	Notes         string   `json:"notes,omitempty"`

	VisitedAt time.Time `json:"visitedAt"`
}

// Validate checks that the bar has a name and that every rating is in range.
func (b *Bar) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: bar name is required", common.ErrInvalidRecord)
	}
	for _, r := range []Rating{b.Rating, b.Atmosphere, b.BeerSelection, b.Service} {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	if b.FoodQuality != nil {
		return b.FoodQuality.Validate()
	}
	return nil
}
