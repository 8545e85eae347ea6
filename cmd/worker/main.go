package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stayfinder/config"
	"stayfinder/internal/kafka"
	"stayfinder/internal/repository"
	"stayfinder/internal/service/booking"
	"stayfinder/internal/service/payment"
	"stayfinder/internal/telegram"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	accommodationRepo := repository.NewAccommodationRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	chatRepo := repository.NewTelegramChatRepository(pool)

	bookingOpts := []booking.BookingServiceOption{}
	if cfg.Worker.UserLookupByBookingID {
		bookingOpts = append(bookingOpts, booking.WithLegacySweepUserLookup())
	}
	bookingService := booking.NewBookingService(
		bookingRepo,
		accommodationRepo,
		userRepo,
		nil, // the sweep never consults the payment gate
		nil, // nor the admission locks
		producer,
		cfg.Kafka.NotificationsTopic,
		0,
		bookingOpts...,
	)
	paymentService := payment.NewPaymentService(
		paymentRepo,
		bookingRepo,
		accommodationRepo,
		nil, // the sweep never opens checkout sessions
		producer,
		cfg.Kafka.NotificationsTopic,
	)

	gateway, err := telegram.NewGateway(cfg.Telegram.Token, chatRepo)
	if err != nil {
		log.Fatalf("telegram gateway: %v", err)
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	go func() {
		if err := consumer.Consume(ctx, gateway.HandleEvent); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	paymentSweepMinutes := cfg.Worker.PaymentSweepMinutes
	if paymentSweepMinutes <= 0 {
		paymentSweepMinutes = 5
	}
	paymentTicker := time.NewTicker(time.Duration(paymentSweepMinutes) * time.Minute)
	defer paymentTicker.Stop()

	// The booking sweep fires at the top of every hour so that its truncated
	// timestamp matches the checkout hour being released.
	hourTimer := time.NewTimer(time.Until(time.Now().Truncate(time.Hour).Add(time.Hour)))
	defer hourTimer.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-hourTimer.C:
			expired, err := bookingService.ExpireHourlyBookings(ctx, time.Now())
			if err != nil {
				log.Printf("expire bookings error: %v", err)
			} else if len(expired) > 0 {
				log.Printf("expired %d bookings", len(expired))
			}
			hourTimer.Reset(time.Until(time.Now().Truncate(time.Hour).Add(time.Hour)))
		case <-paymentTicker.C:
			n, err := paymentService.ExpireStalePayments(ctx, time.Now())
			if err != nil {
				log.Printf("expire payments error: %v", err)
			} else if n > 0 {
				log.Printf("expired %d payments", n)
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
