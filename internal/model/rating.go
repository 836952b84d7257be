package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Rating bounds and comment limit.
const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 200
)

// Rating represents a user-submitted score for one drink.
type Rating struct {
	ID        int64     `json:"id" db:"id"`
	DrinkID   int64     `json:"drink_id" db:"drink_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RatingRequest represents the request payload for submitting a rating.
type RatingRequest struct {
	DrinkID FlexibleID `json:"drink_id"`
	Rating  int        `json:"rating"`
	Comment *string    `json:"comment,omitempty"`
}

// Validate checks the drink reference, the score range and the comment length.
func (r RatingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DrinkID,
			validation.Required.Error("drink_id is required"),
			validation.Min(FlexibleID(1)).Error("drink_id must be a positive integer"),
		),
		validation.Field(&r.Rating,
			validation.Required.Error("rating must be between 1 and 5"),
			validation.Min(MinRating).Error("rating must be between 1 and 5"),
			validation.Max(MaxRating).Error("rating must be between 1 and 5"),
		),
		validation.Field(&r.Comment,
			validation.RuneLength(0, MaxCommentLength).Error("comment must be at most 200 characters"),
		),
	)
}

// RatingCreatedResponse is returned after a rating was stored.
type RatingCreatedResponse struct {
	ID int64 `json:"id"`
}

// RatingSummary holds the aggregate statistics for one drink.
type RatingSummary struct {
	DrinkID int64   `json:"drink_id"`
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// FlexibleID decodes an identifier sent either as a JSON number or as a
// numeric string. The web client submits route parameters as strings.
type FlexibleID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		data = []byte(s)
	}

	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid identifier %q", string(data))
	}
	*id = FlexibleID(v)
	return nil
}
