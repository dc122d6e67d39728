// Package auth runs the browser hand-off login: the backend's OAuth
// entry point redirects back to a short-lived localhost listener with
// the issued bearer token, which is then persisted for future sessions.
package auth

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TokenSink persists the captured token; session.Store satisfies it.
type TokenSink interface {
	SetToken(tok string) error
}

type Flow struct {
	baseURL      string
	callbackPort int
	sink         TokenSink
	log          *zap.SugaredLogger
}

func NewFlow(baseURL string, callbackPort int, sink TokenSink, log *zap.SugaredLogger) *Flow {
	return &Flow{baseURL: baseURL, callbackPort: callbackPort, sink: sink, log: log}
}

// LoginURL is the address the user's browser must visit.
func (f *Flow) LoginURL() string {
	return fmt.Sprintf("%s/auth/google?redirect_uri=http://localhost:%d/callback", f.baseURL, f.callbackPort)
}

// Run opens the login URL and blocks until the callback delivers a
// token or ctx ends. The listener only lives for the duration of one
// sign-in.
func (f *Flow) Run(ctx context.Context) error {
	tokens := make(chan string, 1)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/callback", func(c *fiber.Ctx) error {
		tok := c.Query("token")
		if tok == "" {
			return c.Status(fiber.StatusBadRequest).SendString("missing token")
		}
		select {
		case tokens <- tok:
		default:
		}
		return c.SendString("Signed in. You can close this tab and return to the terminal.")
	})

	errs := make(chan error, 1)
	go func() {
		errs <- app.Listen(fmt.Sprintf("localhost:%d", f.callbackPort))
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	url := f.LoginURL()
	if err := openBrowser(url); err != nil {
		f.log.Infow("open this URL to sign in", "url", url)
	}

	select {
	case tok := <-tokens:
		return f.sink.SetToken(tok)
	case err := <-errs:
		return fmt.Errorf("callback listener: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
