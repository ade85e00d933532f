package event

type TourPublished struct {
	Header Header `json:"header"`
	TourID string `json:"tour_id"`
	HostID string `json:"host_id"`
}

func NewTourPublished(tourID, hostID string) TourPublished {
	return TourPublished{Header: NewHeader(""), TourID: tourID, HostID: hostID}
}

type TourUpdated struct {
	Header Header `json:"header"`
	TourID string `json:"tour_id"`
}

func NewTourUpdated(tourID string) TourUpdated {
	return TourUpdated{Header: NewHeader(""), TourID: tourID}
}

// TourWithdrawn is published when a tour stops being publicly listed, either archived or deleted.
type TourWithdrawn struct {
	Header Header `json:"header"`
	TourID string `json:"tour_id"`
}

func NewTourWithdrawn(tourID string) TourWithdrawn {
	return TourWithdrawn{Header: NewHeader(""), TourID: tourID}
}

type ReviewApproved struct {
	Header   Header `json:"header"`
	ReviewID string `json:"review_id"`
	TourID   string `json:"tour_id"`
	Rating   int    `json:"rating"`
}

func NewReviewApproved(reviewID, tourID string, rating int) ReviewApproved {
	return ReviewApproved{Header: NewHeader(""), ReviewID: reviewID, TourID: tourID, Rating: rating}
}

// ReviewRemoved is published when an approved review stops counting towards the rating.
type ReviewRemoved struct {
	Header   Header `json:"header"`
	ReviewID string `json:"review_id"`
	TourID   string `json:"tour_id"`
}

func NewReviewRemoved(reviewID, tourID string) ReviewRemoved {
	return ReviewRemoved{Header: NewHeader(""), ReviewID: reviewID, TourID: tourID}
}
