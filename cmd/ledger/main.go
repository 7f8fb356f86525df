package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/eaglebank/ledger-service/internal/command"
	"github.com/eaglebank/ledger-service/internal/config"
	"github.com/eaglebank/ledger-service/internal/events"
	"github.com/eaglebank/ledger-service/internal/eventstore"
	"github.com/eaglebank/ledger-service/internal/handler"
	"github.com/eaglebank/ledger-service/internal/middleware"
	"github.com/eaglebank/ledger-service/internal/projection"
	"github.com/eaglebank/ledger-service/internal/query"
	redisClient "github.com/eaglebank/ledger-service/internal/redis"
	"github.com/eaglebank/ledger-service/internal/repository"
)

func main() {
	cfg := config.Load()

	// PostgreSQL holds both the event log and the read-model tables.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Redis carries the event stream and the view cache.
	redis, err := redisClient.NewClient(cfg.RedisAddr, "", 0)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := eventstore.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare event store schema: %v", err)
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to prepare read-model schema: %v", err)
	}

	// --- CQRS wiring ---
	publisher := events.NewStreamPublisher(redis.Client)
	commandSvc := command.NewAccountCommandService(store, publisher)

	viewRepo := repository.NewAccountViewRepository(db, redis.Client)
	statsRepo := repository.NewBankStatsRepository(db)

	accountQuerySvc := query.NewAccountQueryService(viewRepo)
	analyticsQuerySvc := query.NewAnalyticsQueryService(statsRepo)

	projector := projection.NewAccountProjector(viewRepo)
	aggregator := projection.NewAnalyticsAggregator(statsRepo)

	commandHandler := handler.NewCommandHandler(commandSvc)
	queryHandler := handler.NewQueryHandler(accountQuerySvc, analyticsQuerySvc)

	// Setup router
	router := gin.Default()
	router.Use(middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	commands := router.Group("/commands/accounts")
	{
		commands.POST("/create", commandHandler.CreateAccount)
		commands.PUT("/credit", commandHandler.CreditAccount)
		commands.PUT("/debit", commandHandler.DebitAccount)
	}

	queries := router.Group("/queries")
	{
		queries.GET("/accounts", queryHandler.GetAllAccounts)
		queries.GET("/accounts/:id", queryHandler.GetAccountByID)
		queries.GET("/analytics/stats", queryHandler.GetBankStats)
	}

	// Each projector consumes the stream through its own consumer group, so
	// the account view and the bank stats advance independently.
	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "account-projector-group",
			Consumer: cfg.ConsumerName,
			Stream:   events.AccountEventsStream,
			Handler:  projector.Handle,
		})
		if err := subscriber.Start(ctx); err != nil {
			log.Printf("Account projector stopped: %v", err)
		}
	}()

	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "analytics-aggregator-group",
			Consumer: cfg.ConsumerName,
			Stream:   events.AccountEventsStream,
			Handler:  aggregator.Handle,
		})
		if err := subscriber.Start(ctx); err != nil {
			log.Printf("Analytics aggregator stopped: %v", err)
		}
	}()

	// Replay the event log so anything that failed to publish before the
	// last shutdown still reaches the projectors. Their watermarks drop the
	// duplicates.
	go func() {
		if err := command.NewRepublisher(store, publisher).Run(ctx); err != nil {
			log.Printf("Event log replay failed: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	log.Printf("Ledger service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
