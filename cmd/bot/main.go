package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"stayfinder/config"
	"stayfinder/internal/repository"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	bot, err := telegram.NewBot(cfg.Telegram.Token, repository.NewUserRepository(pool), repository.NewTelegramChatRepository(pool))
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}

	log.Println("telegram registration bot started")
	bot.Run(ctx)
}
