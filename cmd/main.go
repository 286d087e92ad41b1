package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/RaikyD/food-orders-service/internal/application"
	"github.com/RaikyD/food-orders-service/internal/auth"
	"github.com/RaikyD/food-orders-service/internal/cache"
	"github.com/RaikyD/food-orders-service/internal/config"
	"github.com/RaikyD/food-orders-service/internal/kafka"
	"github.com/RaikyD/food-orders-service/internal/logger"
	"github.com/RaikyD/food-orders-service/internal/migrate"
	"github.com/RaikyD/food-orders-service/internal/payment/razorpay"
	"github.com/RaikyD/food-orders-service/internal/presentation"
	"github.com/RaikyD/food-orders-service/internal/repository"
	"github.com/RaikyD/food-orders-service/internal/repository/memory"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init(false)
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger.Init(cfg.Production())
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("service stopped with error", "err", err)
		os.Exit(1)
	}
	logger.Info("service stopped")
}

type stores struct {
	orders  application.OrderRepository
	vendors application.VendorDirectory
	catalog application.Catalog
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.STORAGE_DRIVER == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		vendors, catalog := seedDemo()
		return &stores{orders: memory.NewOrderStore(), vendors: vendors, catalog: catalog, close: func() {}}, nil
	}

	if cfg.MIGRATE_ON_START {
		if err := migrate.Up(cfg.DB_STRING); err != nil {
			return nil, err
		}
	}
	pool, err := pgxpool.New(ctx, cfg.DB_STRING)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("db connected")
	return &stores{
		orders:  repository.NewOrderRepository(pool),
		vendors: repository.NewVendorRepository(pool),
		catalog: repository.NewCatalogRepository(pool),
		close:   pool.Close,
	}, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	catalog := st.catalog
	if cfg.REDIS_ADDR != "" {
		rc := cache.NewRedisCache(cfg.REDIS_ADDR, "food-orders")
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, catalog reads fall through", "addr", cfg.REDIS_ADDR, "err", err)
		}
		catalog = cache.NewCachedCatalog(catalog, rc, cfg.CATALOG_CACHE_TTL)
	}

	deps := application.Dependencies{
		Orders:  st.orders,
		Catalog: catalog,
		Vendors: st.vendors,
		Gateway: razorpay.NewClient(razorpay.Config{
			BaseURL:   cfg.PAYMENT_BASE_URL,
			KeyID:     cfg.PAYMENT_KEY_ID,
			KeySecret: cfg.PAYMENT_KEY_SECRET,
			Timeout:   cfg.PAYMENT_TIMEOUT,
		}),
	}

	var prod *kafka.Producer
	if cfg.KAFKA_BROKERS != "" {
		prod = kafka.NewProducer(cfg.KAFKA_BROKERS, cfg.KAFKA_TOPIC)
		defer prod.Close()
		deps.Events = prod
	}

	svc := application.NewOrdersService(deps, application.Options{
		TaxRate:            cfg.TAX_RATE,
		DefaultDeliveryFee: cfg.DEFAULT_DELIVERY_FEE,
		PrepTime:           time.Duration(cfg.PREP_MINUTES) * time.Minute,
		DeliveryTime:       time.Duration(cfg.DELIVERY_MINUTES) * time.Minute,
		GatewayTimeout:     cfg.PAYMENT_TIMEOUT,
		Currency:           cfg.PAYMENT_CURRENCY,
	})

	h := presentation.NewOrdersHandler(svc, cfg.Production())
	srv := &http.Server{
		Addr:              ":" + cfg.HTTP_PORT,
		Handler:           presentation.NewRouter(h, auth.NewMiddleware(cfg.JWT_SECRET, cfg.JWT_ISSUER).Handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if prod != nil {
		worker := kafka.NewRefundWorker(svc, kafka.ConsumerConfig{
			Brokers: cfg.KAFKA_BROKERS,
			Topic:   cfg.KAFKA_TOPIC,
			GroupID: cfg.KAFKA_GROUP_ID,
			Delay:   cfg.REFUND_RETRY_DELAY,
		})
		g.Go(func() error { return worker.Run(gctx) })
	}
	return g.Wait()
}
