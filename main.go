package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"gorm.io/gorm"

	"ordersvc/internal/config"
	"ordersvc/internal/database"
	"ordersvc/internal/handlers"
	"ordersvc/internal/metrics"
	"ordersvc/internal/middleware"
	"ordersvc/internal/models"
	"ordersvc/internal/repositories"
	"ordersvc/internal/services"
	"ordersvc/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg)

	ctx := context.Background()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := NewApp(ctx, cfg, registry)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}

	// --- Start RabbitMQ Consumer ---
	if app.mq != nil {
		if err := app.mq.ConsumeOrderEvents(handleOrderEvent); err != nil {
			log.WithError(err).Error("Failed to start RabbitMQ consumer")
		}
	}

	// --- Start HTTP Server ---
	log.WithField("addr", cfg.AppPort).Info("Starting server")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Info("Shutting down server...")

	if err := app.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}
	if err := app.Close(); err != nil {
		log.WithError(err).Error("Error releasing resources")
	}
	log.Info("Server gracefully stopped")
}

// configureLogging applies the level and format settings to the standard logrus logger.
func configureLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// App wires configuration, storage, messaging, services and HTTP routes together.
type App struct {
	Fiber       *fiber.App
	AuthService *services.AuthService

	db *gorm.DB         // nil for the memory driver
	mq *rabbitmq.Client // nil when RABBITMQ_URL is empty or the broker is unreachable
}

type storage struct {
	products   repositories.ProductRepository
	orders     repositories.OrderRepository
	customers  repositories.CustomerRepository
	transactor repositories.Transactor
	db         *gorm.DB
}

func newStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.DatabaseDriver == database.DriverMemory {
		products := repositories.NewMockProductRepository()
		orders := repositories.NewMockOrderRepository()
		return &storage{
			products:   products,
			orders:     orders,
			customers:  repositories.NewMockCustomerRepository(),
			transactor: repositories.NewMockTransactor(products, orders),
		}, nil
	}

	db, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	return &storage{
		products:   repositories.NewGORMProductRepository(db),
		orders:     repositories.NewGORMOrderRepository(db),
		customers:  repositories.NewGORMCustomerRepository(db),
		transactor: repositories.NewGORMTransactor(db),
		db:         db,
	}, nil
}

// NewApp builds the application for cfg. Metrics are registered on registry.
func NewApp(ctx context.Context, cfg *config.Config, registry *prometheus.Registry) (*App, error) {
	// --- Initialize Storage ---
	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if cfg.DatabaseDriver == database.DriverMemory {
		seedProducts(ctx, store.products)
	}

	// --- Initialize RabbitMQ Client ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.OrderExchange})
		if err != nil {
			// Orders still work without the broker; events are skipped.
			log.WithError(err).Warn("RabbitMQ is unavailable, order events are disabled")
			mqClient = nil
		}
	}

	// --- Initialize Services ---
	orderMetrics := metrics.NewOrderMetrics(registry)
	opts := []services.OrderServiceOption{services.WithOrderMetrics(orderMetrics)}
	if mqClient != nil {
		opts = append(opts, services.WithEventPublisher(mqClient, cfg.OrderExchange))
	}
	orderService := services.NewOrderService(store.orders, store.products, store.customers, store.transactor, opts...)
	productService := services.NewProductService(store.products, orderMetrics)

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = uuid.NewString()
		log.Warn("JWT_SECRET is not set, tokens will not survive a restart")
	}
	authService := services.NewAuthService(store.customers, jwtSecret, cfg.TokenTTL)

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	a := &App{
		Fiber:       app,
		AuthService: authService,
		db:          store.db,
		mq:          mqClient,
	}

	app.Get("/health", a.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	var guard []fiber.Handler
	if cfg.AuthRequired {
		guard = append(guard, middleware.AuthRequired(authService))
	}
	handlers.NewAuthHandler(authService).RegisterRoutes(app)
	handlers.NewProductHandler(productService).RegisterRoutes(app, guard...)
	handlers.NewOrderHandler(orderService).RegisterRoutes(app, guard...)

	return a, nil
}

// Close releases the broker connection and the database pool.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors occurred during shutdown: %v", errs)
	}
	return nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status := fiber.StatusOK
	body := fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "memory",
		"rabbitmq": "disabled",
	}

	if a.db != nil {
		body["database"] = "connected"
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			log.WithError(err).Warn("Health check database ping failed")
			status = fiber.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["database"] = "unreachable"
		}
	}
	if a.mq != nil {
		body["rabbitmq"] = "connected"
	}

	return c.Status(status).JSON(body)
}

// handleOrderEvent logs an order event taken from the order queue. A payload
// that cannot be decoded is rejected.
func handleOrderEvent(msg amqp.Delivery) error {
	var event services.OrderCreatedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("failed to decode order event: %w", err)
	}
	if event.OrderID == "" {
		return fmt.Errorf("order event without order_id")
	}

	log.WithFields(log.Fields{
		"routing_key": msg.RoutingKey,
		"order_id":    event.OrderID,
		"customer_id": event.CustomerID,
		"items":       len(event.Items),
		"total":       event.Total.String(),
	}).Info("Received order event")
	return nil
}

// seedProducts populates the in-memory product repository with demo data.
func seedProducts(ctx context.Context, repo repositories.ProductRepository) {
	products := []models.Product{
		{Name: "Laptop", Price: decimal.RequireFromString("1200.00"), Quantity: 10},
		{Name: "Keyboard", Price: decimal.RequireFromString("75.00"), Quantity: 25},
		{Name: "Mouse", Price: decimal.RequireFromString("25.00"), Quantity: 50},
	}

	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			log.WithError(err).WithField("product", products[i].Name).Error("Error seeding product")
			continue
		}
		log.WithFields(log.Fields{"product": products[i].Name, "id": products[i].ID}).Info("Seeded product")
	}
}
