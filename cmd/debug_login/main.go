package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/config"
	"github.com/servicehub/servicehub-api/internal/middleware"
	"github.com/servicehub/servicehub-api/internal/pkg/database"
	"github.com/servicehub/servicehub-api/internal/pkg/jwt"
)

// Prints a bearer token for local testing of the admin and provider APIs.
//
//	go run ./cmd/debug_login -role admin
//	go run ./cmd/debug_login -role provider -email provider@test.com
func main() {
	role := flag.String("role", middleware.RoleProvider, "admin or provider")
	email := flag.String("email", "", "provider account email (provider role)")
	userID := flag.String("user", "", "user id to embed (admin role, random when empty)")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		log.Fatal("debug_login must not run in production")
	}
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	var id uuid.UUID
	switch *role {
	case middleware.RoleAdmin:
		id = uuid.New()
		if *userID != "" {
			parsed, err := uuid.Parse(*userID)
			if err != nil {
				log.Fatalf("Invalid user id: %v", err)
			}
			id = parsed
		}
	case middleware.RoleProvider:
		if *email == "" {
			log.Fatal("-email is required for the provider role")
		}
		var err error
		if id, err = providerUserID(cfg.DatabaseURL, *email); err != nil {
			log.Fatalf("Failed to resolve provider: %v", err)
		}
	default:
		log.Fatalf("Unknown role %q", *role)
	}

	token, err := jwtService.GenerateAccessToken(id, *role)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println("--- Debug login ---")
	fmt.Printf("user_id: %s\nrole:    %s\nexpires: %s\n\n", id, *role, cfg.JWTAccessTTL)
	fmt.Printf("Authorization: Bearer %s\n", token)
}

func providerUserID(databaseURL, email string) (uuid.UUID, error) {
	db, err := database.NewPostgres(databaseURL)
	if err != nil {
		return uuid.Nil, err
	}
	defer database.ClosePostgres(db)

	var id uuid.UUID
	err = db.GetContext(context.Background(), &id, `SELECT user_id FROM providers WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("no provider with email %s", email)
	}
	return id, err
}
