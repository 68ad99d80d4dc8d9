// Command promote sets a user's role to admin by email address.
// It is used to bootstrap the first admin user.
//
// Usage:
//
//	promote --email=user@example.com
//
// Database settings come from the usual configuration (CONFIG_PATH or
// DATABASE_* environment variables).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/polascin/renaltales-backend/internal/app"
	"github.com/polascin/renaltales-backend/internal/config"
	"github.com/polascin/renaltales-backend/internal/domain"
)

func main() {
	email := flag.String("email", "", "email of user to promote to admin")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Usage: promote --email=user@example.com")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeDB, err := app.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer closeDB()

	if _, err := store.Users.Promote(ctx, *email); err != nil {
		closeDB()
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Printf("No user found with email %q.\n", *email)
			os.Exit(1)
		}
		log.Fatalf("promote: %v", err)
	}

	fmt.Printf("User %q is an admin.\n", *email)
}
