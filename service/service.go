package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tours/auth"
	"tours/config"
	"tours/db"
	"tours/entity"
	"tours/event"
	"tours/http"
	"tours/message"
	"tours/message/command"
	eventHandlers "tours/message/event"
)

type Deps struct {
	Config      config.Config
	Logger      watermill.LoggerAdapter
	DB          *sqlx.DB
	RedisClient *redis.Client

	PaymentsClient      command.PaymentsClient
	ReceiptsClient      eventHandlers.ReceiptsClient
	SpreadsheetAppender eventHandlers.SpreadsheetAppender
	VoucherGenerator    eventHandlers.VoucherGenerator
	Notifier            eventHandlers.Notifier
	TourIndex           eventHandlers.TourIndex
	// TourSearch is nil when no search index is configured.
	TourSearch http.TourSearch
}

type Service struct {
	msgRouter  *message.Router
	forwarder  *message.Forwarder
	httpRouter *echo.Echo

	bookings      db.BookingRepo
	subscriptions db.SubscriptionRepo

	httpAddr      string
	sweepInterval time.Duration
	now           func() time.Time
}

func New(deps Deps) (*Service, error) {
	outbox := message.NewOutbox(deps.Logger)

	users := db.NewUserRepo(deps.DB)
	destinations := db.NewDestinationRepo(deps.DB)
	tours := db.NewTourRepo(deps.DB, outbox)
	bookings := db.NewBookingRepo(deps.DB, outbox)
	payments := db.NewPaymentRepo(deps.DB, outbox)
	reviews := db.NewReviewRepo(deps.DB, outbox)
	blogs := db.NewBlogRepo(deps.DB)
	plans := db.NewPlanRepo(deps.DB)
	subscriptions := db.NewSubscriptionRepo(deps.DB)
	stats := db.NewHostStatsRepo(deps.DB)

	publisher, err := message.NewRedisPublisher(deps.RedisClient, deps.Logger)
	if err != nil {
		return nil, err
	}

	eventBus, err := message.NewEventBus(publisher, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating event bus: %w", err)
	}

	commandBus, err := command.NewBus(publisher, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating command bus: %w", err)
	}

	msgRouter, err := message.NewRouter(message.RouterDeps{
		CommandHandler: command.NewHandler(deps.PaymentsClient, payments),
		EventHandler: eventHandlers.NewHandler(eventHandlers.Deps{
			BookingRepo:         bookings,
			CommandSender:       commandBus,
			DestinationRepo:     destinations,
			HostStatsRepo:       stats,
			Notifier:            deps.Notifier,
			PaymentRepo:         payments,
			Publisher:           eventBus,
			ReceiptsClient:      deps.ReceiptsClient,
			SpreadsheetAppender: deps.SpreadsheetAppender,
			TourIndex:           deps.TourIndex,
			TourRepo:            tours,
			UserRepo:            users,
			VoucherGenerator:    deps.VoucherGenerator,
		}),
		Logger:      deps.Logger,
		RedisClient: deps.RedisClient,
	})
	if err != nil {
		return nil, fmt.Errorf("creating message router: %w", err)
	}

	fwd, err := message.NewForwarder(deps.DB, publisher, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating forwarder: %w", err)
	}

	cfg := deps.Config
	httpRouter := http.NewRouter(http.Deps{
		Tokens:        auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL),
		Users:         users,
		Destinations:  destinations,
		Tours:         tours,
		Search:        deps.TourSearch,
		Bookings:      bookings,
		Payments:      payments,
		Reviews:       reviews,
		Blogs:         blogs,
		Plans:         plans,
		Subscriptions: subscriptions,
		Stats:         stats,
		FreeQuota:     entity.Quota{Tours: cfg.Quota.FreeTours, Blogs: cfg.Quota.FreeBlogs},
		WebhookSecret: cfg.Payments.WebhookSecret,
	})

	return &Service{
		msgRouter:     msgRouter,
		forwarder:     fwd,
		httpRouter:    httpRouter,
		bookings:      bookings,
		subscriptions: subscriptions,
		httpAddr:      cfg.HTTP.Addr,
		sweepInterval: cfg.Bookings.CompletionInterval,
		now:           time.Now,
	}, nil
}

func (s Service) Run(ctx context.Context) error {
	g, runCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.msgRouter.Run(runCtx); err != nil {
			return fmt.Errorf("running messaging router: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		if err := s.forwarder.Run(runCtx); err != nil {
			return fmt.Errorf("running outbox forwarder: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		// Wait for message router
		<-s.msgRouter.Running()

		logrus.WithField("addr", s.httpAddr).Info("Starting HTTP server...")
		err := s.httpRouter.Start(s.httpAddr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return s.runSweeper(runCtx)
	})

	g.Go(func() error {
		<-runCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logrus.Info("Shutting down HTTP server...")
		if err := s.httpRouter.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("waiting for shutdown: %w", err)
	}
	logrus.Info("Shutdown complete.")

	return nil
}

func (s Service) runSweeper(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// A failed sweep is retried on the next tick.
			if err := s.Sweep(ctx); err != nil {
				log.FromContext(ctx).WithError(err).Error("Sweep failed")
			}
		}
	}
}

// Sweep completes confirmed bookings whose tour has ended and expires lapsed subscriptions.
func (s Service) Sweep(ctx context.Context) error {
	ctx = log.ContextWithCorrelationID(ctx, "sweep_"+shortuuid.New())
	logger := log.FromContext(ctx)
	now := s.now()

	ids, err := s.bookings.DueForCompletion(ctx, now)
	if err != nil {
		return err
	}

	var errs []error
	completed := 0
	for _, id := range ids {
		_, err := s.bookings.Update(ctx, id, func(b *entity.Booking) ([]any, error) {
			if b.Status != entity.BookingConfirmed {
				return nil, nil
			}
			if err := b.TransitionTo(entity.BookingCompleted); err != nil {
				return nil, err
			}
			return []any{event.NewBookingCompleted(*b)}, nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("completing booking %s: %w", id, err))
			continue
		}
		completed++
	}

	expired, err := s.subscriptions.ExpireDue(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}

	logger.WithFields(logrus.Fields{
		"bookings_completed":    completed,
		"subscriptions_expired": expired,
	}).Info("Sweep finished")

	return errors.Join(errs...)
}
