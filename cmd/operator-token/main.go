package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/contentguard/backend/config"
	"github.com/contentguard/backend/internal/auth"
	"github.com/google/uuid"
)

// Prints a bearer token for the operator-only routes, e.g. DELETE /api/v1/logs
func main() {
	name := flag.String("name", "operator", "operator name stored in the token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	token, err := jwtService.GenerateToken(uuid.New(), *name)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println(token)
}
