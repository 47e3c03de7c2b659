package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/sudo-init-do/fixmate/internal/config"
	"github.com/sudo-init-do/fixmate/internal/db"
)

func main() {
	email := flag.String("email", "", "Email of the user to promote to admin")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run cmd/adminutil/promote_admin/main.go -email user@example.com")
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

	ct, err := pool.Exec(ctx, `UPDATE users SET role = 'admin' WHERE email = $1`, *email)
	if err != nil {
		log.Fatalf("failed to promote user to admin: %v", err)
	}
	if ct.RowsAffected() == 0 {
		log.Fatalf("no user found with email: %s", *email)
	}

	fmt.Printf("User %s promoted to admin.\n", *email)
}
