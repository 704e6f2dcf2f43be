package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/Bimandi111/employee-managment-system/internal/config"
	"github.com/Bimandi111/employee-managment-system/internal/crypto"
	"github.com/Bimandi111/employee-managment-system/internal/db"
	"github.com/Bimandi111/employee-managment-system/internal/model"
	"github.com/Bimandi111/employee-managment-system/internal/repository"
)

// adduser provisions a login account. There is no self-registration
// endpoint; accounts are created by an operator with database access.
func main() {
	var (
		username = flag.String("username", "", "login name")
		password = flag.String("password", "", "initial password")
		role     = flag.String("role", model.RoleViewer, "ADMIN, HR or VIEWER")
	)
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}
	normalizedRole := strings.ToUpper(strings.TrimSpace(*role))
	if !model.RoleInSet(normalizedRole, []string{model.RoleAdmin, model.RoleHR, model.RoleViewer}) {
		log.Fatalf("unknown role %q", *role)
	}

	hash, err := crypto.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	user, err := store.CreateUser(ctx, model.User{
		Username:     strings.TrimSpace(*username),
		PasswordHash: hash,
		Role:         normalizedRole,
		Active:       true,
	})
	if err != nil {
		log.Fatalf("create user: %v", err)
	}

	log.Printf("created user %s (id=%d, role=%s)", user.Username, user.UserID, user.Role)
}
