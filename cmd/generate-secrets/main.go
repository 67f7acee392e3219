package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/rail-booking-core/internal/utils"
	"github.com/smarttransit/rail-booking-core/pkg/jwt"
)

func main() {
	var (
		secret string
		userID string
		roles  string
		expiry time.Duration
	)
	flag.StringVar(&secret, "secret", "", "sign the dev token with this secret instead of a fresh one")
	flag.StringVar(&userID, "user", "", "also issue an access token for this user ID (use 'new' for a random one)")
	flag.StringVar(&roles, "roles", "passenger", "comma-separated roles for the dev token")
	flag.DurationVar(&expiry, "expiry", time.Hour, "dev token lifetime")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("JWT Secret Generator for SmartTransit Rail")
	fmt.Println("===========================================")
	fmt.Println()

	if secret == "" {
		generated, err := utils.GenerateJWTSecret()
		if err != nil {
			log.Fatalf("Failed to generate secret: %v", err)
		}
		secret = generated

		fmt.Println("✅ Secret generated successfully!")
		fmt.Println()
		fmt.Println("Add this to your .env file:")
		fmt.Println()
		fmt.Printf("JWT_SECRET=%s\n", secret)
		fmt.Println()
	}

	if userID != "" {
		id, err := parseUserID(userID)
		if err != nil {
			log.Fatalf("Invalid -user: %v", err)
		}

		token, err := jwt.NewService(secret, expiry).GenerateAccessToken(id, splitRoles(roles))
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}

		fmt.Printf("Dev access token for %s (expires in %s):\n", id, expiry)
		fmt.Println()
		fmt.Printf("Authorization: Bearer %s\n", token)
		fmt.Println()
	}

	fmt.Println("⚠️  IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}

func parseUserID(s string) (uuid.UUID, error) {
	if s == "new" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}

func splitRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
