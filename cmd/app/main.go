package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stayfinder/api"
	"stayfinder/config"
	"stayfinder/internal/auth"
	"stayfinder/internal/bootstrap"
	"stayfinder/internal/cache"
	"stayfinder/internal/kafka"
	"stayfinder/internal/repository"
	"stayfinder/internal/service/accommodation"
	"stayfinder/internal/service/booking"
	"stayfinder/internal/service/payment"
	"stayfinder/internal/service/user"
	"stayfinder/internal/stripe"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.AccommodationsCacheTTLSec)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	accommodationRepo := repository.NewAccommodationRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	stripeClient := stripe.NewClient(cfg.Stripe)

	paymentService := payment.NewPaymentService(
		paymentRepo,
		bookingRepo,
		accommodationRepo,
		stripeClient,
		producer,
		cfg.Kafka.NotificationsTopic,
	)
	bookingService := booking.NewBookingService(
		bookingRepo,
		accommodationRepo,
		userRepo,
		paymentService,
		redisCache,
		producer,
		cfg.Kafka.NotificationsTopic,
		time.Duration(cfg.Booking.AdmissionLockSeconds)*time.Second,
	)
	accommodationService := accommodation.NewAccommodationService(
		accommodationRepo,
		redisCache,
		producer,
		cfg.Kafka.NotificationsTopic,
	)
	userService := user.NewUserService(userRepo, tokens)

	handlers := bootstrap.Handlers{
		Auth:           api.NewAuthHandler(userService),
		Accommodations: api.NewAccommodationHandler(accommodationService),
		Bookings:       api.NewBookingHandler(bookingService),
		Payments:       api.NewPaymentHandler(paymentService),
	}

	if err := bootstrap.Run(ctx, cfg, tokens, handlers); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
