// Command traintastic-console is an interactive client for exercising a
// running traintastic-server over the client mirror protocol: connect,
// log in, and inspect or mutate objects from a readline prompt.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/traintastic/traintastic-go/cmd/traintastic-console/console"
	"github.com/traintastic/traintastic-go/pkg/auth"
	"github.com/traintastic/traintastic-go/pkg/mirror"
)

// Config holds the console's connection settings.
type Config struct {
	Address  string
	Username string
	Password string
	LogLevel string
}

var config Config

func init() {
	flag.StringVar(&config.Address, "address", "127.0.0.1:5690", "Server address to connect to")
	flag.StringVar(&config.Username, "username", "", "Login username")
	flag.StringVar(&config.Password, "password", "", "Login password")
	flag.StringVar(&config.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", config.LogLevel, err)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	client, err := mirror.Dial(config.Address, logger)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", config.Address, err)
	}
	defer client.Close()

	if err := client.Login(config.Username, auth.HashPassword(config.Password)); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	if _, err := client.NewSession(); err != nil {
		log.Fatalf("failed to start session: %v", err)
	}

	fmt.Printf("Connected to %s as %q\n", config.Address, config.Username)

	ui, err := console.New(client)
	if err != nil {
		log.Fatalf("failed to start console: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ui.Run(ctx, cancel)
}
