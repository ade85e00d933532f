package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tours/auth"
	"tours/clients"
	"tours/config"
	"tours/db"
	"tours/entity"
	"tours/message/event"
	"tours/search"
	"tours/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("failed to run")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configFile string
	var cfg config.Config

	root := &cobra.Command{
		Use:           "tours",
		Short:         "Travel booking marketplace backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(viper.New(), configFile)
			if err != nil {
				return err
			}

			level, err := logrus.ParseLevel(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("parsing log level: %w", err)
			}
			log.Init(level)

			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API, event handlers and background jobs",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cfg, func(dbConn *sqlx.DB) error {
					return db.InitialiseDB(cmd.Context(), dbConn)
				})
			},
		},
		createAdminCmd(&cfg),
	)

	return root
}

func createAdminCmd(cfg *config.Config) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			admin := entity.User{
				ID:           uuid.NewString(),
				Name:         name,
				Email:        strings.ToLower(email),
				PasswordHash: hash,
				Role:         entity.RoleAdmin,
				Status:       entity.UserActive,
				CreatedAt:    time.Now().UTC(),
			}

			return withDB(*cfg, func(dbConn *sqlx.DB) error {
				if err := db.NewUserRepo(dbConn).Add(cmd.Context(), admin); err != nil {
					return err
				}
				logrus.WithField("user_id", admin.ID).Info("Admin created")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "admin display name")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func withDB(cfg config.Config, fn func(dbConn *sqlx.DB) error) error {
	dbConn, err := sqlx.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logrus.WithError(err).Error("failed to close db connection")
		}
	}()

	return fn(dbConn)
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := watermill.NewStdLogger(false, false)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gateway, err := clients.NewGateway(cfg.Gateway.Addr)
	if err != nil {
		return err
	}

	var notifier event.Notifier = clients.NoopNotifier{}
	if cfg.Telegram.Token != "" {
		notifier, err = clients.NewTelegramNotifier(cfg.Telegram.Token)
		if err != nil {
			return err
		}
	}

	deps := service.Deps{
		Config:              cfg,
		Logger:              logger,
		PaymentsClient:      gateway.Payments,
		ReceiptsClient:      gateway.Receipts,
		SpreadsheetAppender: gateway.Spreadsheets,
		VoucherGenerator:    gateway.Files,
		Notifier:            notifier,
		TourIndex:           search.Disabled{},
	}

	if len(cfg.OpenSearch.Addresses) > 0 {
		index, err := search.NewIndex(cfg.OpenSearch.Addresses, cfg.OpenSearch.Index)
		if err != nil {
			return err
		}
		if err := index.EnsureIndex(ctx); err != nil {
			return err
		}
		deps.TourIndex = index
		deps.TourSearch = index
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			logrus.WithError(err).Error("failed to close redis connection")
		}
	}()
	deps.RedisClient = rdb

	return withDB(cfg, func(dbConn *sqlx.DB) error {
		if err := db.InitialiseDB(ctx, dbConn); err != nil {
			return fmt.Errorf("initialising db: %w", err)
		}
		deps.DB = dbConn

		svc, err := service.New(deps)
		if err != nil {
			return fmt.Errorf("creating service: %w", err)
		}

		return svc.Run(ctx)
	})
}
