package event

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"tours/entity"
)

type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

type UserRepo interface {
	ByID(ctx context.Context, id string) (entity.User, error)
}

type HostStatsRepo interface {
	Apply(ctx context.Context, eventID, handler, hostID string, fn func(s *entity.HostStats)) error
}

type ReceiptsClient interface {
	IssueReceipt(ctx context.Context, bookingID string, amount entity.Money) error
}

type SpreadsheetAppender interface {
	AppendRow(ctx context.Context, spreadsheetName string, row []string) error
}

type VoucherGenerator interface {
	GenerateVoucher(ctx context.Context, v entity.Voucher) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, event any) error
}

type CommandSender interface {
	Send(ctx context.Context, cmd any) error
}

type BookingRepo interface {
	SetVoucher(ctx context.Context, id, fileID string) error
}

type PaymentRepo interface {
	LatestByReference(ctx context.Context, kind entity.PaymentKind, referenceID string) (entity.Payment, error)
}

type TourRepo interface {
	ByID(ctx context.Context, id string) (entity.Tour, error)
	RefreshRating(ctx context.Context, tourID string) error
}

type DestinationRepo interface {
	ByID(ctx context.Context, id string) (entity.Destination, error)
}

type TourIndex interface {
	IndexTour(ctx context.Context, tour entity.Tour, destination entity.Destination) error
	RemoveTour(ctx context.Context, tourID string) error
}

func NewProcessorConfig(logger watermill.LoggerAdapter, redisClient *redis.Client) cqrs.EventProcessorConfig {
	return cqrs.EventProcessorConfig{
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        redisClient,
				ConsumerGroup: "svc-tours." + params.HandlerName,
			}, logger)
		},
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return params.EventName, nil
		},
		Marshaler: cqrs.JSONMarshaler{
			GenerateName: cqrs.StructName,
		},
		Logger: logger,
	}
}

type Deps struct {
	BookingRepo         BookingRepo
	CommandSender       CommandSender
	DestinationRepo     DestinationRepo
	HostStatsRepo       HostStatsRepo
	Notifier            Notifier
	PaymentRepo         PaymentRepo
	Publisher           Publisher
	ReceiptsClient      ReceiptsClient
	SpreadsheetAppender SpreadsheetAppender
	TourIndex           TourIndex
	TourRepo            TourRepo
	UserRepo            UserRepo
	VoucherGenerator    VoucherGenerator
}

type Handler struct {
	bookingRepo         BookingRepo
	commandSender       CommandSender
	destinationRepo     DestinationRepo
	hostStatsRepo       HostStatsRepo
	notifier            Notifier
	paymentRepo         PaymentRepo
	publisher           Publisher
	receiptsClient      ReceiptsClient
	spreadsheetAppender SpreadsheetAppender
	tourIndex           TourIndex
	tourRepo            TourRepo
	userRepo            UserRepo
	voucherGenerator    VoucherGenerator
}

func NewHandler(deps Deps) Handler {
	return Handler{
		bookingRepo:         deps.BookingRepo,
		commandSender:       deps.CommandSender,
		destinationRepo:     deps.DestinationRepo,
		hostStatsRepo:       deps.HostStatsRepo,
		notifier:            deps.Notifier,
		paymentRepo:         deps.PaymentRepo,
		publisher:           deps.Publisher,
		receiptsClient:      deps.ReceiptsClient,
		spreadsheetAppender: deps.SpreadsheetAppender,
		tourIndex:           deps.TourIndex,
		tourRepo:            deps.TourRepo,
		userRepo:            deps.UserRepo,
		voucherGenerator:    deps.VoucherGenerator,
	}
}

// Handlers lists every event handler under the name that becomes its consumer group.
func (h Handler) Handlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		cqrs.NewEventHandler("notify-host-booking-created", h.NotifyHostBookingCreated),
		cqrs.NewEventHandler("host-stats-booking-created", h.CountBookingCreated),
		cqrs.NewEventHandler("issue-receipt", h.IssueReceipt),
		cqrs.NewEventHandler("append-to-confirmed-sheet", h.AppendToConfirmedSheet),
		cqrs.NewEventHandler("generate-voucher", h.GenerateVoucher),
		cqrs.NewEventHandler("host-stats-booking-confirmed", h.CountBookingConfirmed),
		cqrs.NewEventHandler("store-voucher", h.StoreVoucher),
		cqrs.NewEventHandler("request-refund", h.RequestRefund),
		cqrs.NewEventHandler("append-to-refund-sheet", h.AppendToRefundSheet),
		cqrs.NewEventHandler("notify-host-booking-cancelled", h.NotifyHostBookingCancelled),
		cqrs.NewEventHandler("host-stats-booking-cancelled", h.CountBookingCancelled),
		cqrs.NewEventHandler("host-stats-booking-completed", h.CountBookingCompleted),
		cqrs.NewEventHandler("host-stats-payment-completed", h.CountPaymentCompleted),
		cqrs.NewEventHandler("host-stats-payment-refunded", h.CountPaymentRefunded),
		cqrs.NewEventHandler("notify-host-subscription-activated", h.NotifyHostSubscriptionActivated),
		cqrs.NewEventHandler("index-published-tour", h.IndexPublishedTour),
		cqrs.NewEventHandler("index-updated-tour", h.IndexUpdatedTour),
		cqrs.NewEventHandler("remove-withdrawn-tour", h.RemoveWithdrawnTour),
		cqrs.NewEventHandler("rating-review-approved", h.RefreshRatingOnApproval),
		cqrs.NewEventHandler("rating-review-removed", h.RefreshRatingOnRemoval),
	}
}
