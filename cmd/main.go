package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/cancel_reservation"
	createReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/create_reservation"
	earnPointsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/earn_points"
	getAvailableSlotsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_available_slots"
	getPointBalanceHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_point_balance"
	getReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_reservation"
	getShopReservationsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_shop_reservations"
	rescheduleReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/reschedule_reservation"
	transitionReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/transition_reservation"
	usePointsHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/use_points"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/config"
	balanceCache "github.com/m04kA/SMC-ReservationService/internal/infra/cache/balance"
	"github.com/m04kA/SMC-ReservationService/internal/infra/database"
	balanceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/balance"
	historyRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/history"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	pointsRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/points"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	catalogClient "github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notification"
	paymentClient "github.com/m04kA/SMC-ReservationService/internal/integrations/payment"
	balanceService "github.com/m04kA/SMC-ReservationService/internal/service/balance"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	ledgerService "github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	pointsService "github.com/m04kA/SMC-ReservationService/internal/service/points"
	"github.com/m04kA/SMC-ReservationService/internal/service/refundpolicy"
	reservationsService "github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	createReservationUC "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
	getAvailableSlotsUC "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-ReservationService/internal/worker"
	"github.com/m04kA/SMC-ReservationService/pkg/clock"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

// Репозитории, которые одинаково реализуют PostgreSQL и in-memory хранилища
type (
	reservationStore interface {
		createReservationUC.ReservationRepository
		getAvailableSlotsUC.ReservationRepository
		reservationsService.ReservationRepository
		pointsService.ReservationRepository
		conflicts.ReservationRepository
	}

	historyStore interface {
		createReservationUC.HistoryRepository
		reservationsService.HistoryRepository
	}

	pointsStore interface {
		ledgerService.PointsRepository
		balanceService.PointsRepository
	}

	txManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
	}
)

type storage struct {
	reservations reservationStore
	history      historyStore
	points       pointsStore
	balances     balanceService.BalanceRepository
	txManager    txManager
	close        func()
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ReservationService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	workClock, err := clock.NewReal(cfg.Reservations.TimeZone)
	if err != nil {
		log.Fatal("Failed to load time zone %s: %v", cfg.Reservations.TimeZone, err)
	}

	// Хранилище
	store, err := openStorage(cfg, metricsCollector, stopMetricsCh, log)
	if err != nil {
		log.Fatal("Failed to open storage: %v", err)
	}
	defer store.close()

	// Кэш балансов (опционально)
	var cache balanceService.Cache
	if cfg.Redis.Enabled {
		redisClient, err := balanceCache.NewClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		cache = balanceCache.New(redisClient, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		log.Info("Balance cache enabled (redis=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.TTLSeconds)
	}

	// Публикатор уведомлений (опционально)
	var notifier interface {
		Publish(ctx context.Context, event notification.Event)
	} = notification.Discard{}
	var publisher *notification.Publisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = notification.NewPublisher(notification.Config{
			URL:        cfg.RabbitMQ.URL,
			Queue:      cfg.RabbitMQ.Queue,
			BufferSize: cfg.RabbitMQ.BufferSize,
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to rabbitmq: %v", err)
		}
		notifier = publisher
		log.Info("Notification publisher enabled (queue=%s)", cfg.RabbitMQ.Queue)
	}

	// Инициализируем интеграционных клиентов
	catalog := catalogClient.NewClient(
		cfg.Catalog.URL,
		time.Duration(cfg.Catalog.Timeout)*time.Second,
		log,
	)
	payment := paymentClient.NewClient(
		cfg.Payment.URL,
		time.Duration(cfg.Payment.Timeout)*time.Second,
		paymentClient.RetryConfig{
			MaxRetries: cfg.Payment.MaxRetries,
			BaseDelay:  time.Duration(cfg.Payment.BaseDelayMs) * time.Millisecond,
			MaxDelay:   time.Duration(cfg.Payment.MaxDelayMs) * time.Millisecond,
			JitterPct:  10,
		},
		log,
	)
	log.Info("Integration clients initialized (Catalog=%s timeout=%ds, Payment=%s timeout=%ds)",
		cfg.Catalog.URL, cfg.Catalog.Timeout, cfg.Payment.URL, cfg.Payment.Timeout)

	// Инициализируем сервисы
	materializer := balanceService.NewMaterializer(
		store.points,
		store.balances,
		cache,
		store.txManager,
		workClock,
		log,
	)
	ledger := ledgerService.NewService(
		store.points,
		store.txManager,
		materializer,
		notifier,
		workClock,
		metricsCollector,
		log,
		ledgerService.Config{
			PendingWindow: cfg.Points.PendingWindow(),
			Expiry:        cfg.Points.Expiry(),
		},
	)
	detector := conflicts.NewDetector(store.reservations, workClock, metricsCollector, log)
	policy := refundpolicy.New(time.Duration(cfg.Reservations.FullRefundNoticeHours) * time.Hour)

	reservationSvc := reservationsService.NewService(
		store.reservations,
		store.history,
		detector,
		ledger,
		policy,
		payment,
		catalog,
		store.txManager,
		notifier,
		workClock,
		metricsCollector,
		log,
		reservationsService.Config{MaxRefundAttempts: cfg.Reservations.MaxRefundAttempts},
	)
	pointsSvc := pointsService.NewService(
		store.reservations,
		ledger,
		materializer,
		catalog,
		store.txManager,
		workClock,
		log,
		pointsService.Config{AdminIDs: cfg.Points.AdminIDs},
	)

	// Инициализируем use cases
	createReservationUseCase := createReservationUC.NewUseCase(
		store.reservations,
		store.history,
		detector,
		ledger,
		catalog,
		payment,
		notifier,
		store.txManager,
		workClock,
		metricsCollector,
		log,
		createReservationUC.Config{
			DefaultDurationMinutes: cfg.Reservations.DefaultDurationMinutes,
			EarnRatePercent:        cfg.Points.EarnRatePercent,
		},
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		store.reservations,
		catalog,
		workClock,
		log,
		getAvailableSlotsUC.Config{
			StepMinutes:            cfg.Reservations.SlotStepMinutes,
			DefaultDurationMinutes: cfg.Reservations.DefaultDurationMinutes,
			AdvanceBookingDays:     cfg.Reservations.AdvanceBookingDays,
		},
	)

	// Фоновые задачи
	scheduler := worker.NewScheduler(metricsCollector, log,
		worker.ExpiryJob(ledger, cfg.Workers.SweepBatchSize, seconds(cfg.Workers.ExpirySweepInterval), log),
		worker.ReconcileJob(materializer, seconds(cfg.Workers.ReconcileInterval), log),
		worker.RefundRetryJob(reservationSvc, cfg.Workers.RefundRetryLimit, seconds(cfg.Workers.RefundRetryInterval), log),
	)
	scheduler.Start(context.Background())

	// Инициализируем handlers
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationSvc, log)
	confirmReservation := transitionReservationHandler.NewConfirmHandler(reservationSvc, log)
	completeReservation := transitionReservationHandler.NewCompleteHandler(reservationSvc, log)
	markNoShow := transitionReservationHandler.NewNoShowHandler(reservationSvc, log)
	cancelReservation := cancelReservationHandler.NewHandler(reservationSvc, log)
	rescheduleReservation := rescheduleReservationHandler.NewHandler(reservationSvc, log)
	getShopReservations := getShopReservationsHandler.NewHandler(reservationSvc, log)
	usePoints := usePointsHandler.NewHandler(pointsSvc, log)
	earnPoints := earnPointsHandler.NewHandler(pointsSvc, log)
	getPointBalance := getPointBalanceHandler.NewHandler(pointsSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные окна магазина на дату
	api.HandleFunc("/shops/{shopId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}", getReservation.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/reservations/{reservationId}/confirm", confirmReservation.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/reservations/{reservationId}/complete", completeReservation.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/reservations/{reservationId}/no-show", markNoShow.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/reservations/{reservationId}/cancel", cancelReservation.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/reservations/{reservationId}/reschedule", rescheduleReservation.Handle).Methods(http.MethodPatch)

	// --- Управление магазином (для менеджеров) ---
	protected.HandleFunc("/shops/{shopId}/reservations", getShopReservations.Handle).Methods(http.MethodGet)

	// --- Баллы ---
	protected.HandleFunc("/customers/{customerId}/points/use", usePoints.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/customers/{customerId}/points/earn", earnPoints.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/customers/{customerId}/points/balance", getPointBalance.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	scheduler.Stop()
	log.Info("Background workers stopped")

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error("Failed to close notification publisher: %v", err)
		}
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}

// openStorage открывает PostgreSQL или in-memory хранилище по конфигурации
func openStorage(cfg *config.Config, m *metrics.Metrics, stopCh <-chan struct{}, log *logger.Logger) (*storage, error) {
	if cfg.Database.Storage == config.StorageMemory {
		log.Warn("Using in-memory storage, data is lost on restart")
		mem := memory.NewStore()
		return &storage{
			reservations: mem.Reservations(),
			history:      mem.History(),
			points:       mem.Points(),
			balances:     mem.Balances(),
			txManager:    mem.TxManager(),
			close:        func() {},
		}, nil
	}

	db, err := database.Open(cfg.Database.DSN(), database.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("Database migrations applied")
	}

	wrapped := wrapDB(db, m, cfg.Metrics.ServiceName, stopCh)
	return &storage{
		reservations: reservationRepo.NewRepository(wrapped),
		history:      historyRepo.NewRepository(wrapped),
		points:       pointsRepo.NewRepository(wrapped),
		balances:     balanceRepo.NewRepository(wrapped),
		txManager:    txmanager.NewTransactionManager(wrapped),
		close:        func() { db.Close() },
	}, nil
}

func wrapDB(db *sql.DB, m *metrics.Metrics, name string, stopCh <-chan struct{}) *dbmetrics.DB {
	if m == nil {
		return dbmetrics.Wrap(db)
	}
	return dbmetrics.WrapWithDefault(db, m, name, stopCh)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
