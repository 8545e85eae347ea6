package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stayfinder/api"
	"stayfinder/config"
	"stayfinder/internal/auth"
)

type Handlers struct {
	Auth           *api.AuthHandler
	Accommodations *api.AccommodationHandler
	Bookings       *api.BookingHandler
	Payments       *api.PaymentHandler
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, tokens *auth.TokenManager, handlers Handlers) error {
	router := gin.Default()

	handlers.Auth.Register(router.Group("/auth"))

	secured := router.Group("", auth.Middleware(tokens))
	handlers.Accommodations.Register(secured.Group("/accommodations"))
	handlers.Bookings.Register(secured.Group("/bookings"))
	handlers.Payments.Register(secured.Group("/payments"))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
