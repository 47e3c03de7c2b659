package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/sudo-init-do/fixmate/internal/config"
	"github.com/sudo-init-do/fixmate/internal/db"
)

// verify_provider marks a provider profile as verified, looked up by the
// owning account's email.
// Usage:
//   go run cmd/adminutil/verify_provider/main.go -email provider@example.com
func main() {
	email := flag.String("email", "", "Email of the provider account to verify")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run cmd/adminutil/verify_provider/main.go -email provider@example.com")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.New(ctx, cfg.DBURL)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer pool.Close()

	ct, err := pool.Exec(ctx, `
		UPDATE providers SET verified = TRUE, updated_at = NOW()
		WHERE account_id = (SELECT id FROM users WHERE email = $1)`, *email)
	if err != nil {
		log.Fatalf("failed to verify provider: %v", err)
	}
	if ct.RowsAffected() == 0 {
		log.Fatalf("no provider profile found for email: %s", *email)
	}

	fmt.Printf("Provider for %s verified.\n", *email)
}
