package telegram

import (
	"context"
	"log"
	"regexp"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stayfinder/internal/domain"
	"stayfinder/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Bot links telegram chats to registered users: a user sends their account
// email to the bot and future notifications land in that chat.
type Bot struct {
	api   *tgbotapi.BotAPI
	users repository.UserRepository
	chats repository.TelegramChatRepository
}

func NewBot(token string, users repository.UserRepository, chats repository.TelegramChatRepository) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Printf("telegram bot authorized as %s", api.Self.UserName)
	return &Bot{api: api, users: users, chats: chats}, nil
}

// Run polls for updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		if msg.Command() == "start" {
			b.reply(chatID, "Hi, "+msg.From.FirstName+"! You have successfully started using the chat. Please enter your registered email.")
		}
		return
	}

	if !emailPattern.MatchString(msg.Text) {
		b.reply(chatID, "Please enter the email registered with the service.")
		return
	}

	user, err := b.users.GetByEmail(ctx, msg.Text)
	if err != nil {
		b.reply(chatID, "No user found with this email, please try again.")
		return
	}
	if err := b.chats.Save(ctx, &domain.TelegramChat{ChatID: chatID, UserID: user.ID}); err != nil {
		log.Printf("WARNING: save chat for user %d: %v", user.ID, err)
		b.reply(chatID, "Something went wrong, please try again later.")
		return
	}
	b.reply(chatID, "Thank you! Now you will receive booking notifications here.")
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("WARNING: send telegram reply to chat %d: %v", chatID, err)
	}
}
