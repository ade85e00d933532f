package entity

import "time"

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

type Review struct {
	ID        string       `json:"id" db:"review_id"`
	TourID    string       `json:"tour_id" db:"tour_id"`
	BookingID string       `json:"booking_id" db:"booking_id"`
	TouristID string       `json:"tourist_id" db:"tourist_id"`
	Rating    int          `json:"rating" db:"rating"`
	Comment   string       `json:"comment" db:"comment"`
	Status    ReviewStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

func (r Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return NewValidationError("rating must be between 1 and 5")
	}
	return nil
}

// CanReview reports whether booking b entitles tourist to review its tour.
func CanReview(b Booking, touristID string) error {
	if b.TouristID != touristID {
		return ErrForbidden
	}
	if b.Status != BookingCompleted {
		return NewValidationError("only completed bookings can be reviewed")
	}
	return nil
}

type ReviewFilter struct {
	TourID    string
	TouristID string
	Status    ReviewStatus
}
