package event

import (
	"context"
	"errors"
	"fmt"

	"tours/entity"
	"tours/event"
)

func (h Handler) indexTour(ctx context.Context, tourID string) error {
	tour, err := h.tourRepo.ByID(ctx, tourID)
	if errors.Is(err, entity.ErrNotFound) {
		return h.tourIndex.RemoveTour(ctx, tourID)
	}
	if err != nil {
		return fmt.Errorf("getting tour: %w", err)
	}

	// Events may arrive after the tour was withdrawn again.
	if tour.Status != entity.TourPublished {
		return h.tourIndex.RemoveTour(ctx, tourID)
	}

	destination, err := h.destinationRepo.ByID(ctx, tour.DestinationID)
	if err != nil {
		return fmt.Errorf("getting destination: %w", err)
	}

	if err := h.tourIndex.IndexTour(ctx, tour, destination); err != nil {
		return fmt.Errorf("indexing tour: %w", err)
	}
	return nil
}

func (h Handler) IndexPublishedTour(ctx context.Context, e *event.TourPublished) error {
	return h.indexTour(ctx, e.TourID)
}

func (h Handler) IndexUpdatedTour(ctx context.Context, e *event.TourUpdated) error {
	return h.indexTour(ctx, e.TourID)
}

// RemoveWithdrawnTour re-reads the tour, so a late event cannot drop a tour published again since.
func (h Handler) RemoveWithdrawnTour(ctx context.Context, e *event.TourWithdrawn) error {
	return h.indexTour(ctx, e.TourID)
}

func (h Handler) refreshRating(ctx context.Context, tourID string) error {
	if err := h.tourRepo.RefreshRating(ctx, tourID); err != nil {
		return err
	}
	return h.indexTour(ctx, tourID)
}

func (h Handler) RefreshRatingOnApproval(ctx context.Context, e *event.ReviewApproved) error {
	return h.refreshRating(ctx, e.TourID)
}

func (h Handler) RefreshRatingOnRemoval(ctx context.Context, e *event.ReviewRemoved) error {
	return h.refreshRating(ctx, e.TourID)
}
