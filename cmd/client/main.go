package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"estatehub/internal/client/app"
	"estatehub/internal/client/backend"
	"estatehub/internal/client/backend/rest"
	"estatehub/internal/client/cli"
	"estatehub/internal/config"
	"estatehub/internal/pkg/logger"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		switch {
		case errors.Is(err, config.ErrConfigMissing):
			log.Fatalf("❌ %v (set it in the environment or a .env file)", err)
		case errors.Is(err, config.ErrConfigPlaceholder):
			log.Fatalf("❌ %v (replace the sample value with your backend's)", err)
		default:
			log.Fatalf("❌ Failed to load configuration: %v", err)
		}
	}

	zl, err := logger.New("dev", cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	tokenPath := cfg.TokenFile
	if tokenPath == "" {
		if tokenPath, err = backend.DefaultTokenPath(); err != nil {
			zl.Fatal("❌ Cannot locate session file", zap.Error(err))
		}
	}

	client := rest.New(rest.Config{
		BaseURL: cfg.BaseURL,
		AnonKey: cfg.AnonKey,
		Tokens:  backend.NewFileStore(tokenPath),
		Logger:  zl.Named("rest"),
	})

	printer := cli.NewPrinter(os.Stdout)
	a := app.New(client.Backend(), app.Options{
		Logger:  zl,
		Notices: printer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		zl.Fatal("❌ Failed to start client", zap.Error(err))
	}
	defer a.Stop()

	// piped input keeps passwords on the same stream as commands
	var secrets cli.PasswordReader
	if term.IsTerminal(int(os.Stdin.Fd())) {
		secrets = readPassword
	}
	repl := cli.New(a, printer, os.Stdin, secrets, zl)
	if err := repl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("❌ Client stopped", zap.Error(err))
	}
}

// readPassword reads from the terminal without echo
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
