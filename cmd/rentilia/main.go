package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rentilia/internal/app/commands"
	bookingapp "rentilia/internal/app/handlers/booking"
	paymentsapp "rentilia/internal/app/handlers/payments"
	"rentilia/internal/app/middleware"
	appoutbox "rentilia/internal/app/outbox"
	"rentilia/internal/app/policies"
	authsvc "rentilia/internal/app/services/auth"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
	domainitems "rentilia/internal/domain/items"
	"rentilia/internal/domain/shared/money"
	"rentilia/internal/infra/broker/kafka"
	"rentilia/internal/infra/config"
	mongodb "rentilia/internal/infra/db/mongo"
	ginserver "rentilia/internal/infra/http/gin"
	"rentilia/internal/infra/notify"
	"rentilia/internal/infra/obs"
	infraoutbox "rentilia/internal/infra/outbox"
	stripegw "rentilia/internal/infra/payments/stripe"
	"rentilia/internal/infra/security"
	"rentilia/internal/infra/storage/memory"
	"rentilia/internal/infra/storage/s3"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if app.worker != nil {
		go app.worker.Run(ctx)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreMode, "payments", cfg.PaymentsMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	worker   *infraoutbox.Worker
	ready    func() error
	closers  []func() error
}

func (a *application) close(logger *slog.Logger) {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		uowFactory  uow.UoWFactory
		bookingRepo domainbooking.Repository
		itemRepo    domainitems.Repository
		ledger      paymentsapp.EventLedger
		idemStore   middleware.IdempotencyStore
		outboxPort  appoutbox.Outbox
		authService *authsvc.Service
		mongoOutbox *infraoutbox.Store
	)

	switch cfg.StoreMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		db := client.DB
		bookings := mongodb.NewBookingRepository(db)
		items := mongodb.NewItemRepository(db)
		users := mongodb.NewUserRepository(db)

		uowFactory = mongodb.Factory{
			DB:           db,
			BookingRepo:  bookings,
			ItemRepo:     items,
			UserRepo:     users,
			EvidenceRepo: mongodb.NewEvidenceStore(db),
			Failures:     mongodb.NewFailureLog(db),
		}
		bookingRepo, itemRepo = bookings, items
		ledger = mongodb.NewWebhookLedger(db)
		idemStore = mongodb.NewIdempotencyStore(db, cfg.IdempotencyTTL)
		mongoOutbox = infraoutbox.NewStore(db)
		outboxPort = mongoOutbox
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		authService = &authsvc.Service{
			Users:      users,
			Sessions:   mongodb.NewSessionStore(db),
			Passwords:  security.BcryptHasher{},
			Tokens:     security.RandomTokenGenerator{},
			SessionTTL: cfg.SessionTTL,
			Logger:     logger,
		}
	case "memory":
		factory := memory.NewFactory()
		uowFactory = factory
		bookingRepo, itemRepo = factory.BookingRepo, factory.ItemRepo
		ledger = memory.NewWebhookLedger()
		idemStore = memory.NewIdempotencyStore()
		outboxPort = memory.NewOutbox()
		authService = &authsvc.Service{
			Users:      factory.UserRepo,
			Sessions:   memory.NewSessionStore(),
			Passwords:  security.BcryptHasher{},
			Tokens:     security.RandomTokenGenerator{},
			SessionTTL: cfg.SessionTTL,
			Logger:     logger,
		}
	default:
		return nil, fmt.Errorf("unknown STORE_MODE %q", cfg.StoreMode)
	}

	var (
		payments policies.PaymentsPort
		webhooks policies.WebhookPort
	)
	switch cfg.PaymentsMode {
	case "stripe":
		gw := stripegw.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret, logger)
		payments, webhooks = gw, gw
	case "memory":
		gw := memory.NewPaymentsGateway()
		payments, webhooks = gw, gw
	default:
		return nil, fmt.Errorf("unknown PAYMENTS_MODE %q", cfg.PaymentsMode)
	}

	// One producer serves both the outbox worker and notifications. Without a
	// broker, notifications fall back to the log and outbox events stay stored.
	var notifier policies.Notifier = notify.LogNotifier{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return nil, fmt.Errorf("kafka connect: %w", err)
		}
		app.closers = append(app.closers, producer.Close)
		notifier = notify.NewKafkaNotifier(producer, cfg.NotificationTopic)
		if mongoOutbox != nil {
			app.worker = infraoutbox.NewWorker(mongoOutbox, producer, logger, infraoutbox.WorkerConfig{
				PollInterval: cfg.OutboxPollInterval,
				TopicPrefix:  cfg.KafkaTopicPrefix,
				RetryBackoff: cfg.RetryBackoff,
			})
		}
	}

	var uploader policies.Uploader
	if s3Client, err := s3.New(ctx, s3.Options{
		Endpoint:       cfg.S3Endpoint,
		PublicEndpoint: cfg.S3PublicEndpoint,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		Bucket:         cfg.S3Bucket,
		UseSSL:         cfg.S3UseSSL,
	}, logger); err != nil {
		logger.Warn("object storage unavailable, evidence uploads disabled", "error", err)
		uploader = s3.Disabled{}
	} else {
		uploader = s3Client
	}

	encoder := appoutbox.JSONEventEncoder{}
	deposits := &paymentsapp.DepositManager{Payments: payments, Logger: logger}

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		Outbox:  outboxPort,
		Encoder: encoder,
	})
	commands.RegisterHandler(bus, bookingapp.ConfirmPickupCommand{}.Key(), &bookingapp.ConfirmPickupHandler{
		Outbox:   outboxPort,
		Encoder:  encoder,
		Notifier: notifier,
		Logger:   logger,
	})
	commands.RegisterHandler(bus, bookingapp.InitiateReturnCommand{}.Key(), &bookingapp.InitiateReturnHandler{
		Outbox:   outboxPort,
		Encoder:  encoder,
		Notifier: notifier,
		Logger:   logger,
	})
	commands.RegisterHandler(bus, bookingapp.ConfirmReturnCommand{}.Key(), &bookingapp.ConfirmReturnHandler{
		Deposits: deposits,
		Outbox:   outboxPort,
		Encoder:  encoder,
		Notifier: notifier,
		Logger:   logger,
	})
	commands.RegisterHandler(bus, paymentsapp.InitiatePaymentCommand{}.Key(), &paymentsapp.InitiatePaymentHandler{
		Payments:   payments,
		Outbox:     outboxPort,
		Encoder:    encoder,
		RequestTTL: cfg.RequestTTL,
		Logger:     logger,
	})
	commands.RegisterHandler(bus, paymentsapp.CompleteCheckoutCommand{}.Key(), &paymentsapp.CompleteCheckoutHandler{
		Payments:   payments,
		Outbox:     outboxPort,
		Encoder:    encoder,
		Notifier:   notifier,
		RequestTTL: cfg.RequestTTL,
		Logger:     logger,
	})
	commands.RegisterHandler(bus, paymentsapp.ManageDepositCommand{}.Key(), &paymentsapp.ManageDepositHandler{
		Deposits: deposits,
		Outbox:   outboxPort,
		Encoder:  encoder,
		Notifier: notifier,
		Logger:   logger,
	})

	dispatch := middleware.ChainCommands(
		bus,
		middleware.Logging(logger),
		middleware.Idempotency(idemStore, nil),
		middleware.Transaction(uowFactory, nil),
	)

	ingestor := &paymentsapp.WebhookIngestor{
		Ledger:  ledger,
		UoW:     uowFactory,
		Outbox:  outboxPort,
		Encoder: encoder,
		Logger:  logger,
	}

	if cfg.StoreMode == "memory" {
		if err := seedFixtures(ctx, cfg, logger, authService, itemRepo); err != nil {
			logger.Warn("fixtures load failed", "error", err)
		}
	}

	app.handlers = ginserver.Handlers{
		Auth:    ginserver.AuthHandler{Service: authService, Logger: logger},
		Booking: ginserver.BookingHandler{Bus: dispatch, Bookings: bookingRepo, Logger: logger},
		Payment: ginserver.PaymentHandler{Bus: dispatch, Logger: logger},
		Evidence: ginserver.EvidenceHandler{
			Bookings: bookingRepo,
			Uploader: uploader,
			Logger:   logger,
		},
		Webhook: ginserver.WebhookHandler{
			Webhooks: webhooks,
			Ingestor: ingestor,
			Logger:   logger,
		},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	return app, nil
}

type fixtureFile struct {
	Users []struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	} `json:"users"`
	Items []struct {
		ID           string `json:"id"`
		OwnerEmail   string `json:"owner_email"`
		Title        string `json:"title"`
		DailyRate    int64  `json:"daily_rate_cents"`
		DepositCents int64  `json:"deposit_cents"`
		Active       *bool  `json:"active"`
	} `json:"items"`
}

// seedFixtures imports demo users and rentable items in memory mode so the API
// is usable without a database.
func seedFixtures(ctx context.Context, cfg config.Config, logger *slog.Logger, auth *authsvc.Service, items domainitems.Repository) error {
	path := os.Getenv("FIXTURES_PATH")
	if path == "" {
		path = filepath.Join("data", "fixtures.json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return err
	}
	var fx fixtureFile
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	owners := make(map[string]string)
	for _, u := range fx.Users {
		res, err := auth.Register(ctx, authsvc.RegisterParams{Email: u.Email, Name: u.Name, Password: u.Password})
		if err != nil {
			logger.Error("fixture user rejected", "email", u.Email, "error", err)
			continue
		}
		owners[u.Email] = string(res.User.ID)
	}
	now := time.Now().UTC()
	for _, it := range fx.Items {
		ownerID, ok := owners[it.OwnerEmail]
		if !ok {
			logger.Error("fixture item references unknown owner", "item", it.ID, "owner_email", it.OwnerEmail)
			continue
		}
		active := true
		if it.Active != nil {
			active = *it.Active
		}
		item := &domainitems.Item{
			ID:        domainitems.ItemID(it.ID),
			OwnerID:   ownerID,
			Title:     it.Title,
			DailyRate: money.Money{Amount: it.DailyRate, Currency: cfg.Currency},
			Deposit:   money.Money{Amount: it.DepositCents, Currency: cfg.Currency},
			Active:    active,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := items.Save(ctx, item); err != nil {
			logger.Error("cannot store fixture item", "item", it.ID, "error", err)
			continue
		}
		logger.Info("item fixture imported", "item", it.ID)
	}
	return nil
}
