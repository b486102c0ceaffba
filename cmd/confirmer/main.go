package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/config"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/confirm"
	kafkax "github.com/mehmetsahinnn/OrderTrackingSystem/internal/kafka"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/postgres"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/redisx"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/search"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pConfirmed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderConfirmed, 1024, log)
	pConfirmed.Start(ctx)
	pRejected := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderRejected, 1024, log)
	pRejected.Start(ctx)
	pDead := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicDeadLetter, 256, log)
	pDead.Start(ctx)

	svc := &confirm.Service{
		Store:     &orders.Repo{DB: db},
		Ledger:    &orders.StockRepo{DB: db},
		Dedup:     &redisx.Dedup{RDB: rdb, Service: "confirmer"},
		Index:     &search.RedisIndex{RDB: rdb},
		Confirmed: pConfirmed,
		Rejected:  pRejected,
		Name:      cfg.ServiceName + "-confirmer",
		Log:       log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, orders.TopicOrderSubmitted, cfg.ConsumerWorkers, pDead, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("confirmer consumer started",
			zap.String("group", cfg.ConsumerGroup),
			zap.String("topic", orders.TopicOrderSubmitted),
			zap.Int("workers", cfg.ConsumerWorkers))
		if err := cons.Start(ctx, svc.HandleOrderSubmitted); err != nil {
			log.Error("consumer exit", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down consumer")
	case <-done:
		log.Warn("consumer stopped")
	}
	cancel()
	// Start returns only once the workers drained, so no handler can publish
	// into a closed producer below.
	<-done
	for _, p := range []*kafkax.Producer{pConfirmed, pRejected, pDead} {
		p.Close()
	}
	for _, p := range []*kafkax.Producer{pConfirmed, pRejected, pDead} {
		p.WaitClosed()
	}
}
