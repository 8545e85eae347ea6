package domain

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         UserRole
}

// TelegramChat links a user to the telegram chat that receives their notifications.
type TelegramChat struct {
	ID     int64
	ChatID int64
	UserID int64
}
