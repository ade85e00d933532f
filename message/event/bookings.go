package event

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"tours/clients"
	"tours/command"
	"tours/entity"
	"tours/event"
)

func (h Handler) notifyUser(ctx context.Context, userID, text string) error {
	u, err := h.userRepo.ByID(ctx, userID)
	if errors.Is(err, entity.ErrNotFound) {
		log.FromContext(ctx).WithField("user_id", userID).Info("User is gone, skipping notification")
		return nil
	}
	if err != nil {
		return fmt.Errorf("getting user: %w", err)
	}
	if u.TelegramChatID == nil {
		return nil
	}

	return h.notifier.Notify(ctx, *u.TelegramChatID, text)
}

func (h Handler) NotifyHostBookingCreated(ctx context.Context, e *event.BookingCreated) error {
	text := fmt.Sprintf("New booking for %q: %d traveller(s) starting %s, awaiting payment.",
		e.TourTitle, e.People, e.StartDate.Format("2006-01-02"))
	return h.notifyUser(ctx, e.HostID, text)
}

func (h Handler) CountBookingCreated(ctx context.Context, e *event.BookingCreated) error {
	return h.hostStatsRepo.Apply(ctx, e.Header.ID, "booking-created", e.HostID, func(s *entity.HostStats) {
		s.TotalBookings++
	})
}

func (h Handler) IssueReceipt(ctx context.Context, e *event.BookingConfirmed) error {
	if err := h.receiptsClient.IssueReceipt(ctx, e.BookingID, e.Amount); err != nil {
		return fmt.Errorf("issuing receipt: %w", err)
	}

	return nil
}

func (h Handler) AppendToConfirmedSheet(ctx context.Context, e *event.BookingConfirmed) error {
	row := []string{
		e.BookingID,
		e.TourID,
		strconv.Itoa(e.People),
		e.StartDate.Format("2006-01-02"),
		e.Amount.Amount.StringFixed(2),
		e.Amount.Currency,
	}
	if err := h.spreadsheetAppender.AppendRow(ctx, clients.SheetBookingsConfirmed, row); err != nil {
		return fmt.Errorf("failed to append row to tracker: %w", err)
	}

	return nil
}

func (h Handler) GenerateVoucher(ctx context.Context, e *event.BookingConfirmed) error {
	fileID, err := h.voucherGenerator.GenerateVoucher(ctx, entity.Voucher{
		BookingID: e.BookingID,
		TourID:    e.TourID,
		People:    e.People,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		Amount:    e.Amount,
	})
	if err != nil {
		return fmt.Errorf("generating voucher: %w", err)
	}

	generated := event.NewBookingVoucherGenerated(e.Header.IdempotencyKey, e.BookingID, fileID)
	if err := h.publisher.Publish(ctx, generated); err != nil {
		return fmt.Errorf("publishing voucher generated event: %w", err)
	}

	return nil
}

func (h Handler) CountBookingConfirmed(ctx context.Context, e *event.BookingConfirmed) error {
	return h.hostStatsRepo.Apply(ctx, e.Header.ID, "booking-confirmed", e.HostID, func(s *entity.HostStats) {
		s.ConfirmedBookings++
	})
}

// CountPaymentCompleted adds settled booking payments to host revenue.
// Bookings an admin confirmed without payment earn nothing until their payment completes.
func (h Handler) CountPaymentCompleted(ctx context.Context, e *event.PaymentCompleted) error {
	if e.Kind != entity.PaymentForBooking || e.HostID == "" {
		return nil
	}

	return h.hostStatsRepo.Apply(ctx, e.Header.ID, "payment-completed", e.HostID, func(s *entity.HostStats) {
		s.Revenue = s.Revenue.Add(e.Amount.Amount)
	})
}

func (h Handler) StoreVoucher(ctx context.Context, e *event.BookingVoucherGenerated) error {
	return h.bookingRepo.SetVoucher(ctx, e.BookingID, e.FileID)
}

func refundable(e *event.BookingCancelled) bool {
	return e.PaymentStatus == entity.PaymentCompleted && e.RefundAmount.IsPositive()
}

// RequestRefund sends the refund of a paid booking to the payment provider.
func (h Handler) RequestRefund(ctx context.Context, e *event.BookingCancelled) error {
	if !refundable(e) {
		return nil
	}

	p, err := h.paymentRepo.LatestByReference(ctx, entity.PaymentForBooking, e.BookingID)
	if err != nil {
		return fmt.Errorf("getting booking payment: %w", err)
	}

	cmd := command.NewRefundPayment(e.Header.IdempotencyKey, p.ID, e.BookingID, e.HostID, e.RefundAmount)
	if err := h.commandSender.Send(ctx, cmd); err != nil {
		return fmt.Errorf("sending refund command: %w", err)
	}

	return nil
}

func (h Handler) AppendToRefundSheet(ctx context.Context, e *event.BookingCancelled) error {
	if !refundable(e) {
		return nil
	}

	row := []string{
		e.BookingID,
		e.TourID,
		string(e.CancelledBy),
		e.RefundAmount.Amount.StringFixed(2),
		e.RefundAmount.Currency,
	}
	if err := h.spreadsheetAppender.AppendRow(ctx, clients.SheetBookingsToRefund, row); err != nil {
		return fmt.Errorf("failed to append row to tracker: %w", err)
	}

	return nil
}

func (h Handler) NotifyHostBookingCancelled(ctx context.Context, e *event.BookingCancelled) error {
	if e.CancelledBy == entity.RoleHost {
		return nil
	}

	text := fmt.Sprintf("Booking %s was cancelled by %s.", e.BookingID, e.CancelledBy)
	if e.Reason != "" {
		text += " Reason: " + e.Reason
	}
	return h.notifyUser(ctx, e.HostID, text)
}

func (h Handler) CountBookingCancelled(ctx context.Context, e *event.BookingCancelled) error {
	return h.hostStatsRepo.Apply(ctx, e.Header.ID, "booking-cancelled", e.HostID, func(s *entity.HostStats) {
		s.CancelledBookings++
		if e.WasConfirmed && s.ConfirmedBookings > 0 {
			s.ConfirmedBookings--
		}
	})
}

func (h Handler) CountBookingCompleted(ctx context.Context, e *event.BookingCompleted) error {
	return h.hostStatsRepo.Apply(ctx, e.Header.ID, "booking-completed", e.HostID, func(s *entity.HostStats) {
		s.CompletedBookings++
		if s.ConfirmedBookings > 0 {
			s.ConfirmedBookings--
		}
	})
}

// CountPaymentRefunded keeps revenue net of refunds.
func (h Handler) CountPaymentRefunded(ctx context.Context, e *event.PaymentRefunded) error {
	if e.HostID == "" {
		return nil
	}

	return h.hostStatsRepo.Apply(ctx, e.Header.ID, "payment-refunded", e.HostID, func(s *entity.HostStats) {
		s.Refunded = s.Refunded.Add(e.RefundAmount.Amount)
		s.Revenue = s.Revenue.Sub(e.RefundAmount.Amount)
	})
}

func (h Handler) NotifyHostSubscriptionActivated(ctx context.Context, e *event.SubscriptionActivated) error {
	text := fmt.Sprintf("Your subscription is active until %s.", e.EndsAt.Format("2006-01-02"))
	return h.notifyUser(ctx, e.HostID, text)
}
