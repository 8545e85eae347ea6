package telegram

import (
	"context"
	"errors"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stayfinder/internal/domain"
	"stayfinder/internal/repository"
)

// Gateway delivers notifications to the telegram chats users registered via
// the bot. Delivery is best effort: every failure is logged and swallowed.
type Gateway struct {
	bot   *tgbotapi.BotAPI
	chats repository.TelegramChatRepository
}

func NewGateway(token string, chats repository.TelegramChatRepository) (*Gateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Printf("telegram gateway authorized as %s", bot.Self.UserName)
	return &Gateway{bot: bot, chats: chats}, nil
}

func (g *Gateway) Notify(ctx context.Context, userID int64, message string) {
	chat, err := g.chats.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrChatNotFound) {
			log.Printf("no chat registered for user %d, skipping notification", userID)
			return
		}
		log.Printf("WARNING: lookup chat for user %d: %v", userID, err)
		return
	}
	if _, err := g.bot.Send(tgbotapi.NewMessage(chat.ChatID, message)); err != nil {
		log.Printf("WARNING: send telegram message to chat %d: %v", chat.ChatID, err)
	}
}

func (g *Gateway) NotifyBatch(ctx context.Context, userIDs []int64, message string) {
	for _, userID := range userIDs {
		g.Notify(ctx, userID, message)
	}
}
