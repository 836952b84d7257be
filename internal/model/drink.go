package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxDrinkNameLength is the longest accepted drink name in characters.
const MaxDrinkNameLength = 100

// Drink represents a catalog entry that can be rated.
type Drink struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ImageURL  *string   `json:"image_url" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DrinkInput carries the admin-supplied fields for creating or updating a drink.
type DrinkInput struct {
	Name  string
	Image *ImageUpload
}

// Validate checks the drink name. Callers trim it first.
func (in DrinkInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required.Error("drink name is required"),
			validation.RuneLength(1, MaxDrinkNameLength).Error("drink name must be at most 100 characters"),
		),
	)
}

// ImageUpload is an uploaded image held in memory until it is handed to blob storage.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the upload size in bytes.
func (u *ImageUpload) Size() int64 {
	return int64(len(u.Data))
}

// MessageResponse is returned by endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}
