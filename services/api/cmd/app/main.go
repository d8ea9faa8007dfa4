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
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/md-ataur/watch-redux-server/services/api/internal/authz"
	httpx "github.com/md-ataur/watch-redux-server/services/api/internal/http"
	"github.com/md-ataur/watch-redux-server/services/api/internal/http/handlers"
	"github.com/md-ataur/watch-redux-server/services/api/internal/identity"
	"github.com/md-ataur/watch-redux-server/services/api/internal/payment"
	"github.com/md-ataur/watch-redux-server/services/api/internal/service"
	"github.com/md-ataur/watch-redux-server/services/api/internal/store"
	"github.com/md-ataur/watch-redux-server/shared/pkg/cache"
	"github.com/md-ataur/watch-redux-server/shared/pkg/config"
	"github.com/md-ataur/watch-redux-server/shared/pkg/logger"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
	"github.com/md-ataur/watch-redux-server/shared/pkg/rabbit"
)

type collections struct {
	products store.Collection[models.Product]
	users    store.Collection[models.User]
	orders   store.Collection[models.Order]
	close    func()
}

func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (collections, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := store.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return collections{}, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := store.EnsureUserIndexes(ctx, db.Collection("users")); err != nil {
			log.Warn().Err(err).Msg("ensure users index failed")
		}
		return collections{
			products: store.NewMongo[models.Product](db, "products"),
			users:    store.NewMongo[models.User](db, "users"),
			orders:   store.NewMongo[models.Order](db, "orders"),
			close:    func() { disconnectMongo(client) },
		}, nil

	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return collections{}, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return collections{}, err
		}
		if err := store.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return collections{}, err
		}
		return collections{
			products: store.NewPostgres[models.Product](pool, "products"),
			users:    store.NewPostgres[models.User](pool, "users"),
			orders:   store.NewPostgres[models.Order](pool, "orders"),
			close:    pool.Close,
		}, nil

	default:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return collections{
			products: store.NewMemory[models.Product](),
			users:    store.NewMemory[models.User](models.FieldEmail),
			orders:   store.NewMemory[models.Order](),
			close:    func() {},
		}, nil
	}
}

func disconnectMongo(c *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.Disconnect(ctx)
}

func tokenVerifier(ctx context.Context, cfg config.AuthConfig) (identity.TokenVerifier, error) {
	if cfg.Provider == config.AuthJWT {
		return identity.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer), nil
	}
	return identity.NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Common.ServiceName, cfg.Common.LogLevel)

	ctxInit, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	cols, err := openStore(ctxInit, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("store connect failed")
	}
	defer cols.close()

	tokens, err := tokenVerifier(ctxInit, cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Auth.Provider).Msg("identity provider init failed")
	}
	verifier := &identity.Verifier{Tokens: tokens, Log: log}

	var admins *service.AdminCache
	if cfg.Redis.Addr != "" {
		rdb := cache.New(cfg.Redis.Addr)
		if err := rdb.Ping(ctxInit); err != nil {
			log.Warn().Err(err).Msg("redis unavailable; admin cache disabled")
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			admins = &service.AdminCache{Redis: rdb, TTL: cfg.Redis.AdminTTL}
		}
	}

	var events service.EventPublisher
	if cfg.Rabbit.URL != "" {
		rc, err := rabbit.Connect(cfg.Rabbit.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbit connect failed")
		}
		defer rc.Close()
		if err := rabbit.DeclareBase(rc.Ch); err != nil {
			log.Fatal().Err(err).Msg("rabbit declare failed")
		}
		events = rabbit.NewPublisher(rc.Ch, rabbit.ExchangeEvents)
	}

	guard := &authz.Guard{Users: cols.users, Log: log}

	products := &service.ProductsService{Products: cols.products}
	users := &service.UsersService{Users: cols.users, Guard: guard, Admins: admins, Events: events, Log: log}
	orders := &service.OrdersService{
		Orders:          cols.orders,
		Guard:           guard,
		Events:          events,
		Log:             log,
		StrictOwnership: cfg.Orders.StrictOwnership,
		AdminOnly:       cfg.Orders.AdminOnly,
	}
	payments := &payment.Translator{
		Gateway:    payment.NewStripeGateway(cfg.Payment.StripeSecret),
		Currency:   cfg.Payment.Currency,
		MethodType: cfg.Payment.MethodType,
		Log:        log,
	}

	router := httpx.NewRouter(&httpx.Handlers{
		Products: &handlers.ProductsHandler{Products: products, Log: log},
		Users:    &handlers.UsersHandler{Users: users, Identity: verifier, Log: log},
		Orders:   &handlers.OrdersHandler{Orders: orders, Identity: verifier, Log: log},
		Payments: &handlers.PaymentsHandler{Payments: payments, Log: log},
	}, httpx.Options{
		Service:     cfg.Common.ServiceName,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.Store.Driver).
			Str("auth", cfg.Auth.Provider).
			Bool("strict_ownership", cfg.Orders.StrictOwnership).
			Bool("orders_admin_only", cfg.Orders.AdminOnly).
			Msg("http started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown...")
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
