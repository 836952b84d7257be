package model

import "time"

// DrinkStats is one dashboard row: the drink plus its rating aggregate.
type DrinkStats struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ImageURL      *string   `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	RatingCount   int64     `json:"rating_count"`
	AverageRating float64   `json:"average_rating"`
}

// DashboardTotals holds catalog-wide counters.
type DashboardTotals struct {
	TotalDrinks  int64 `json:"total_drinks"`
	TotalRatings int64 `json:"total_ratings"`
}

// Dashboard is the admin dashboard payload.
type Dashboard struct {
	Drinks []DrinkStats    `json:"drinks"`
	Stats  DashboardTotals `json:"stats"`
}
