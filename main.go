package main

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/truongnh28/bookstore/cart"
	"github.com/truongnh28/bookstore/checkout"
	"github.com/truongnh28/bookstore/config"
	"github.com/truongnh28/bookstore/discount"
	"github.com/truongnh28/bookstore/kafka"
	"github.com/truongnh28/bookstore/log"
	"github.com/truongnh28/bookstore/repository"
	"github.com/truongnh28/bookstore/server"
)

func main() {
	cfg := config.Load()
	logger := log.GetLogger(context.Background())

	db := repository.InitDatabase(cfg.Database)
	if err := repository.Migrate(db); err != nil {
		logger.Fatalf("migrate failed: %s", err)
	}

	books := repository.NewBookRepo(db)
	users := repository.NewUserRepo(db)
	carts := repository.NewCartRepo(db)
	discounts := repository.NewDiscountRepo(db)
	transactions := repository.NewTransactionRepo(db)
	store := repository.NewCheckoutStore(db)

	resolver := discount.NewResolver(discounts)
	cartService := cart.NewService(books, carts, resolver)
	discountService := discount.NewService(discounts)

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})

	// Checkout still settles when the broker is down; events are best
	// effort.
	var events checkout.EventPublisher
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		logger.WithError(err).Errorf("kafka producer disabled: %s", err)
	} else {
		events = producer
		defer func() { _ = producer.Close() }()
	}

	orchestrator := checkout.NewOrchestrator(
		users,
		carts,
		books,
		resolver,
		store,
		checkout.NewRedisGate(redisCli),
		events,
	)

	srv := server.New(cartService, orchestrator, discountService, users, transactions)
	logger.Infof("listening on %s", cfg.HTTPAddr)
	if err := srv.Router().Run(cfg.HTTPAddr); err != nil {
		logger.Fatalf("server stopped: %s", err)
	}
}
