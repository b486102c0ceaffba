package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/cart"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/config"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/customers"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/httpx"
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

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderSubmitted, 1024, log)
	prod.Start(ctx)

	orderRepo := &orders.Repo{DB: db}
	productRepo := &orders.ProductRepo{DB: db}
	orderSvc := &orders.Service{
		Store:    orderRepo,
		Catalog:  productRepo,
		Producer: prod,
		Name:     cfg.ServiceName,
		Log:      log,
	}
	customerSvc := &customers.Service{
		Store:  &customers.Repo{DB: db},
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL,
		Log:    log,
	}
	cartSvc := &cart.Service{
		Store:   &cart.Repo{DB: db},
		Catalog: productRepo,
		Orders:  orderSvc,
		Log:     log,
	}

	auth := &httpx.Auth{Secret: []byte(cfg.JWTSecret)}
	router := httpx.NewRouter(log)
	(&httpx.CustomersHandler{Svc: customerSvc, Log: log}).Register(router)
	(&httpx.ProductsHandler{Store: productRepo, Auth: auth, Log: log}).Register(router)
	(&httpx.OrdersHandler{Svc: orderSvc, Index: &search.RedisIndex{RDB: rdb}, Auth: auth, Log: log}).Register(router)
	(&httpx.CartHandler{Svc: cartSvc, Auth: auth, Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
