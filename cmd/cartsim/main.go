// Command cartsim runs a local cart service implementing the storefront cart
// contract. It backs development and integration testing of the pricing
// engine's cart client without a real storefront.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/solbruket/storefront-engine/internal/cartapi"
	"github.com/solbruket/storefront-engine/internal/config"
	"github.com/solbruket/storefront-engine/internal/health"
	"github.com/solbruket/storefront-engine/internal/money"
	"github.com/solbruket/storefront-engine/internal/obs"
	"github.com/solbruket/storefront-engine/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("ping redis")
	}
	cancel()

	globalStore, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
		Prefix: "cartsim:global",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	globalLimiter := limiter.New(globalStore, limiter.Rate{
		Period: time.Minute,
		Limit:  int64(cfg.GlobalRatePerMinute),
	})

	addLimiter := ratelimit.Handler{
		Limiter: ratelimit.SlidingRedis{Client: redisClient, Prefix: "cartsim:add:"},
		Config: ratelimit.Config{
			Key: func(r *http.Request) string {
				if cookie, err := r.Cookie(cartapi.SessionCookie); err == nil && cookie.Value != "" {
					return cookie.Value
				}
				return r.RemoteAddr
			},
			Window: cfg.AddRateWindow,
			Max:    cfg.AddRateMax,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter unavailable")
		},
	}

	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, nil, nil)

	cartHandler := cartapi.Handler{
		Store:  cartapi.Store{Client: redisClient, TTL: cfg.CartTTL},
		Prices: demoPriceBook(),
		Logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(limiterstdlib.NewMiddleware(globalLimiter).Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthChecker := health.Checker{Redis: redisClient, Timeout: 2 * time.Second}
	r.Get("/healthz", healthChecker.Live)
	r.Get("/readyz", healthChecker.Ready)

	r.Group(func(g chi.Router) {
		g.Get("/cart.js", cartHandler.GetCart)
		g.With(addLimiter.Middleware).Post("/cart/add.js", cartHandler.AddItems)
		g.Post("/cart/change.js", cartHandler.ChangeLine)
		g.Post("/cart/update.js", cartHandler.UpdateCart)
		g.Post("/cart/clear.js", cartHandler.ClearCart)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("cart simulator starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("cart simulator stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// demoPriceBook seeds the simulator with a small green tech assortment so the
// engine can be pointed at it out of the box.
func demoPriceBook() cartapi.PriceBook {
	book := cartapi.PriceBook{
		"9001": {
			Title:        "Solcellsbatteri 10 kWh / Standard",
			ProductTitle: "Solcellsbatteri 10 kWh",
			VariantTitle: "Standard",
			UnitPrice:    money.Money(9_990_000),
		},
		"9002": {
			Title:        "Solcellsbatteri 15 kWh / Utökad",
			ProductTitle: "Solcellsbatteri 15 kWh",
			VariantTitle: "Utökad",
			UnitPrice:    money.Money(13_490_000),
		},
		"9101": {
			Title:        "Laddbox 11 kW",
			ProductTitle: "Laddbox 11 kW",
			UnitPrice:    money.Money(1_249_000),
		},
		"9201": {
			Title:        "Installation av behörig elektriker",
			ProductTitle: "Installation av behörig elektriker",
			UnitPrice:    money.Money(495_000),
		},
	}
	for id, v := range book {
		v.Image = fmt.Sprintf("https://cdn.example.se/products/%s.jpg", id)
		book[id] = v
	}
	return book
}
