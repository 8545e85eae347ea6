package domain

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusExpired PaymentStatus = "EXPIRED"
)

type Payment struct {
	ID         int64
	BookingID  int64
	SessionID  string
	SessionURL string
	// ExpiresAt is the checkout session expiry as unix seconds, as reported
	// by the payment provider.
	ExpiresAt   int64
	AmountCents int64
	Status      PaymentStatus
}
