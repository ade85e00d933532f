package entity

import "time"

type Destination struct {
	ID          string    `json:"id" db:"destination_id"`
	Name        string    `json:"name" db:"name"`
	Country     string    `json:"country" db:"country"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
