package command

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/shopspring/decimal"

	"tours/command"
	"tours/entity"
)

type PaymentsClient interface {
	RefundPayment(ctx context.Context, idempotencyKey, paymentID string, amount entity.Money) error
}

type PaymentRepo interface {
	MarkRefunded(ctx context.Context, id string, amount decimal.Decimal, idempotencyKey, hostID string) error
}

type Handler struct {
	payments    PaymentsClient
	paymentRepo PaymentRepo
}

func NewHandler(p PaymentsClient, r PaymentRepo) Handler {
	return Handler{
		payments:    p,
		paymentRepo: r,
	}
}

func (h Handler) Handlers() []cqrs.CommandHandler {
	return []cqrs.CommandHandler{
		cqrs.NewCommandHandler("refund-payment", h.RefundPayment),
	}
}

func (h Handler) RefundPayment(ctx context.Context, cmd *command.RefundPayment) error {
	if err := h.payments.RefundPayment(ctx, cmd.Header.IdempotencyKey, cmd.PaymentID, cmd.Amount); err != nil {
		return fmt.Errorf("refunding payment: %w", err)
	}

	if err := h.paymentRepo.MarkRefunded(ctx, cmd.PaymentID, cmd.Amount.Amount, cmd.Header.IdempotencyKey, cmd.HostID); err != nil {
		return fmt.Errorf("marking payment refunded: %w", err)
	}

	return nil
}
