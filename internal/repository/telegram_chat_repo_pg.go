package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stayfinder/internal/domain"
)

type TelegramChatRepository interface {
	Save(ctx context.Context, chat *domain.TelegramChat) error
	GetByUserID(ctx context.Context, userID int64) (*domain.TelegramChat, error)
}

type PGTelegramChatRepository struct {
	db *pgxpool.Pool
}

func NewTelegramChatRepository(db *pgxpool.Pool) TelegramChatRepository {
	return &PGTelegramChatRepository{db: db}
}

func (r *PGTelegramChatRepository) Save(ctx context.Context, chat *domain.TelegramChat) error {
	return r.db.QueryRow(ctx, `INSERT INTO telegram_chats (chat_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
		RETURNING id`, chat.ChatID, chat.UserID).Scan(&chat.ID)
}

func (r *PGTelegramChatRepository) GetByUserID(ctx context.Context, userID int64) (*domain.TelegramChat, error) {
	row := r.db.QueryRow(ctx, `SELECT id, chat_id, user_id FROM telegram_chats WHERE user_id=$1 AND is_deleted=false`, userID)
	var c domain.TelegramChat
	if err := row.Scan(&c.ID, &c.ChatID, &c.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

var _ TelegramChatRepository = (*PGTelegramChatRepository)(nil)
