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

	"khidma/internal/app/commands"
	bookingapp "khidma/internal/app/handlers/booking"
	paymentapp "khidma/internal/app/handlers/payment"
	providerapp "khidma/internal/app/handlers/provider"
	"khidma/internal/app/middleware"
	appoutbox "khidma/internal/app/outbox"
	"khidma/internal/app/queries"
	"khidma/internal/app/schedule"
	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
	domaincatalog "khidma/internal/domain/catalog"
	domainprovider "khidma/internal/domain/provider"
	"khidma/internal/domain/shared/money"
	"khidma/internal/infra/broker/kafka"
	"khidma/internal/infra/config"
	mongodb "khidma/internal/infra/db/mongo"
	ginserver "khidma/internal/infra/http/gin"
	"khidma/internal/infra/inbox"
	"khidma/internal/infra/obs"
	infraoutbox "khidma/internal/infra/outbox"
	"khidma/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := getenv("CATALOG_FIXTURES", "")
	if fixturesPath == "" {
		fixturesPath = defaultFixturesPath()
	}
	if err := app.loadFixtures(ctx, fixturesPath, cfg.Currency, logger); err != nil {
		logger.Warn("catalog fixtures load failed", "error", err, "path", fixturesPath)
	}

	app.startWorkers(ctx, cfg, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	commands commands.Bus

	uowFactory  uow.UoWFactory
	catalogRepo domaincatalog.Repository
	provRepo    domainprovider.Repository

	mongoClient *mongodb.Client
	outboxStore *infraoutbox.Store
	paymentsIn  kafka.Inbox
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{}

	var outboxStore appoutbox.Outbox
	var idStore middleware.IdempotencyStore

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		app.mongoClient = client
		bookingRepo := mongodb.NewBookingRepository(client.DB)
		timelineRepo := mongodb.NewTimelineRepository(client.DB)
		catalogRepo := mongodb.NewCatalogRepository(client.DB)
		providerRepo := mongodb.NewProviderRepository(client.DB)
		ledgerRepo := mongodb.NewLedgerRepository(client.DB)
		app.uowFactory = mongodb.Factory{
			DB:           client.DB,
			BookingRepo:  bookingRepo,
			TimelineRepo: timelineRepo,
			CatalogRepo:  catalogRepo,
			ProviderRepo: providerRepo,
			LedgerRepo:   ledgerRepo,
		}
		app.catalogRepo = catalogRepo
		app.provRepo = providerRepo
		app.outboxStore = infraoutbox.NewStore(client.DB)
		outboxStore = app.outboxStore
		idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		app.paymentsIn = inbox.NewStore(client.DB, cfg.KafkaPaymentGroup)
	case "memory":
		bookingRepo := memory.NewBookingRepository()
		timelineRepo := memory.NewTimelineStore()
		catalogRepo := memory.NewCatalogRepository()
		providerRepo := memory.NewProviderRepository()
		ledgerRepo := memory.NewLedgerStore()
		app.uowFactory = memory.Factory{
			BookingRepo:  bookingRepo,
			TimelineRepo: timelineRepo,
			CatalogRepo:  catalogRepo,
			ProviderRepo: providerRepo,
			LedgerRepo:   ledgerRepo,
		}
		app.catalogRepo = catalogRepo
		app.provRepo = providerRepo
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
	default:
		return nil, fmt.Errorf("unsupported storage mode %q", cfg.StorageMode)
	}

	tiers := make([]domainbooking.RefundTier, 0, len(cfg.RefundTiers))
	for _, t := range cfg.RefundTiers {
		tiers = append(tiers, domainbooking.RefundTier{MinLead: t.MinLead, Percent: t.Percent})
	}
	refundSchedule, err := domainbooking.NewRefundSchedule(tiers)
	if err != nil {
		return nil, fmt.Errorf("refund schedule: %w", err)
	}

	encoder := appoutbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()

	createHandler := &bookingapp.CreateBookingHandler{
		UoWFactory:     app.uowFactory,
		Outbox:         outboxStore,
		Encoder:        encoder,
		VATRatePercent: cfg.VATRatePercent,
		Currency:       cfg.Currency,
		Logger:         logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), createHandler)

	assignHandler := &bookingapp.AssignProviderHandler{
		UoWFactory: app.uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.AssignProviderCommand{}.Key(), assignHandler)

	transitionHandler := &bookingapp.TransitionHandler{
		UoWFactory: app.uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	}
	transitionHandler.Register(commandBus)

	completeHandler := &bookingapp.CompleteBookingHandler{
		UoWFactory: app.uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.CompleteBookingCommand{}.Key(), completeHandler)

	cancelHandler := &bookingapp.CancelBookingHandler{
		UoWFactory: app.uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Schedule:   refundSchedule,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), cancelHandler)

	chargeHandler := &bookingapp.AddChargeHandler{
		UoWFactory:     app.uowFactory,
		Outbox:         outboxStore,
		Encoder:        encoder,
		VATRatePercent: cfg.VATRatePercent,
		Logger:         logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.AddChargeCommand{}.Key(), chargeHandler)

	paymentHandler := &paymentapp.RecordPaymentHandler{
		UoWFactory: app.uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, paymentapp.RecordPaymentCommand{}.Key(), paymentHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: app.uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.GetTimelineQuery{}.Key(), &bookingapp.GetTimelineHandler{UoWFactory: app.uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListCustomerBookingsQuery{}.Key(), &bookingapp.ListCustomerBookingsHandler{UoWFactory: app.uowFactory})
	queries.RegisterHandler(queryBus, providerapp.GetEarningsQuery{}.Key(), &providerapp.GetEarningsHandler{UoWFactory: app.uowFactory})

	app.commands = middleware.ChainCommands(
		commandBus,
		middleware.Validation(bookingapp.CommandValidator{}),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(app.uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: app.commands,
			Queries:  queryBusWithMiddleware,
		},
		Provider: ginserver.ProviderHandler{
			Queries: queryBusWithMiddleware,
		},
		IdentityMiddleware: ginserver.IdentityMiddleware(),
	}
	return app, nil
}

func (a *application) ready() error {
	if a.mongoClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return a.mongoClient.Ping(ctx)
}

func (a *application) startWorkers(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	expiry := &schedule.ExpiryWorker{
		UoWFactory: a.uowFactory,
		Bus:        a.commands,
		TTL:        cfg.PendingTTL,
		Interval:   cfg.PendingSweepInterval,
		Logger:     logger,
	}
	go func() {
		if err := expiry.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("expiry worker stopped", "error", err)
		}
	}()

	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka brokers not configured, event publication disabled")
		return
	}

	if a.outboxStore != nil {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Error("kafka producer init failed", "error", err)
		} else {
			worker := &infraoutbox.Worker{
				Store:       a.outboxStore,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Source:      "app://khidma",
				Backoff:     cfg.RetryBackoff,
			}
			go func() {
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			}()
		}
	}

	paymentConsumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaPaymentGroup, nil, &kafka.PaymentEventHandler{
		Bus:    a.commands,
		Inbox:  a.paymentsIn,
		Logger: logger,
	})
	if err != nil {
		logger.Error("kafka payment consumer init failed", "error", err)
		return
	}
	topic := cfg.KafkaTopicPrefix + "payment.events.v1"
	go func() {
		defer paymentConsumer.Close()
		if err := paymentConsumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("payment consumer stopped", "error", err)
		}
	}()
}

func (a *application) loadFixtures(ctx context.Context, path, currency string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("catalog fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("catalog fixtures file empty", "path", path)
		return nil
	}

	var fixtures catalogFixtures
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures.Services {
		price, err := money.New(fx.BasePrice, currency)
		if err != nil {
			logger.Error("fixture service invalid", "service_id", fx.ID, "error", err)
			continue
		}
		svc := &domaincatalog.Service{
			ID:        domaincatalog.ServiceID(fx.ID),
			Name:      fx.Name,
			Category:  fx.Category,
			BasePrice: price,
			Active:    fx.Active,
		}
		if err := a.catalogRepo.Save(ctx, svc); err != nil {
			logger.Error("cannot store fixture service", "service_id", fx.ID, "error", err)
			continue
		}
		logger.Info("service fixture imported", "service_id", fx.ID)
	}
	for _, fx := range fixtures.Providers {
		p := &domainprovider.Provider{
			ID:                    domainprovider.ID(fx.ID),
			Name:                  fx.Name,
			CommissionRatePercent: fx.CommissionRatePercent,
			Active:                fx.Active,
		}
		if err := a.provRepo.Save(ctx, p); err != nil {
			logger.Error("cannot store fixture provider", "provider_id", fx.ID, "error", err)
			continue
		}
		logger.Info("provider fixture imported", "provider_id", fx.ID)
	}
	return nil
}

type catalogFixtures struct {
	Services  []serviceFixture  `json:"services"`
	Providers []providerFixture `json:"providers"`
}

type serviceFixture struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	BasePrice int64  `json:"base_price"`
	Active    bool   `json:"active"`
}

type providerFixture struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	CommissionRatePercent int64  `json:"commission_rate_percent"`
	Active                bool   `json:"active"`
}

func defaultFixturesPath() string {
	return filepath.Join("data", "catalog.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
