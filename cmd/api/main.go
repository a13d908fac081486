package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront-api/internal/cache"
	"github.com/flicky/storefront-api/internal/config"
	"github.com/flicky/storefront-api/internal/handler"
	"github.com/flicky/storefront-api/internal/logging"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/repository"
	"github.com/flicky/storefront-api/internal/service"
	"github.com/flicky/storefront-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ: one channel for consuming, one for publishing.
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}

	publishCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ publish channel", "error", err)
		os.Exit(1)
	}
	defer publishCh.Close()
	log.Info("connected to RabbitMQ")

	productCache := cache.NewProductCache(redisClient, cache.DefaultProductTTL, log)

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	reviewRepo := repository.NewReviewRepository(dbPool)
	wishlistRepo := repository.NewWishlistRepository(dbPool)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	productSvc := service.NewProductService(productRepo, productCache)
	cartSvc := service.NewCartService(cartRepo, productRepo, cfg.Cart.Coupons, log)
	orderSvc := service.NewOrderService(orderRepo, productRepo, worker.NewPublisher(publishCh), log)
	checkoutSvc := service.NewCheckoutService(cartSvc, orderSvc, log)
	reviewSvc := service.NewReviewService(reviewRepo, productRepo, userRepo, productCache)
	wishlistSvc := service.NewWishlistService(wishlistRepo, productRepo)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	productH := handler.NewProductHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc, checkoutSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)
	wishlistH := handler.NewWishlistHandler(wishlistSvc)
	healthH := handler.NewHealthHandler(
		handler.Dependency{Name: "postgres", Ping: dbPool.Ping},
		handler.Dependency{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
		handler.Dependency{Name: "rabbitmq", Ping: func(context.Context) error {
			if amqpConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}},
	)

	// Worker
	orderWorker := worker.NewOrderWorker(consumeCh, productRepo, worker.NewRedisDeduper(redisClient), productCache, log)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)

		users := v1.Group("/users", authRequired)
		users.GET("/profile", authH.Profile)
		users.PUT("/profile", authH.UpdateProfile)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)

		admin := products.Group("", authRequired, middleware.AdminOnly())
		admin.POST("", productH.Create)
		admin.PUT("/:id", productH.Update)
		admin.PATCH("/:id/stock", productH.SetStock)
		admin.DELETE("/:id", productH.Delete)

		reviews := v1.Group("/reviews")
		reviews.GET("/:productId", reviewH.List)
		reviews.GET("/:productId/summary", reviewH.Summary)
		reviews.POST("/:productId", authRequired, reviewH.Upsert)
		reviews.DELETE("/:productId/:reviewId", authRequired, reviewH.Delete)

		wishlist := v1.Group("/wishlist", authRequired)
		wishlist.GET("", wishlistH.List)
		wishlist.POST("/:productId", wishlistH.Add)
		wishlist.DELETE("/:productId", wishlistH.Remove)

		cart := v1.Group("/cart", authRequired)
		cart.GET("", cartH.GetCart)
		cart.POST("", cartH.AddItem)
		cart.POST("/apply-coupon", cartH.ApplyCoupon)
		cart.POST("/remove-coupon", cartH.RemoveCoupon)
		cart.DELETE("/clear", cartH.Clear)
		cart.PUT("/:itemId", cartH.UpdateItem)
		cart.DELETE("/:itemId", cartH.RemoveItem)

		v1.POST("/checkout", authRequired, orderH.Checkout)

		orders := v1.Group("/orders", authRequired)
		orders.POST("", orderH.PlaceOrder)
		orders.GET("/myorders", orderH.ListMine)
		orders.GET("/:id", orderH.GetOrder)
		orders.PUT("/:id/cancel", orderH.Cancel)
		orders.POST("/:id/return", orderH.RequestReturn)

		ordersAdmin := orders.Group("", middleware.AdminOnly())
		ordersAdmin.GET("", orderH.ListOrders)
		ordersAdmin.GET("/stats", orderH.Stats)
		ordersAdmin.PUT("/:id/status", orderH.UpdateStatus)
		ordersAdmin.PUT("/:id/tracking", orderH.UpdateTracking)
		ordersAdmin.PUT("/:id/return", orderH.ResolveReturn)
	}

	if err := orderWorker.Start(ctx); err != nil {
		log.Error("start order worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
