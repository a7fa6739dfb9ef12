// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"scapes/internal/database"
	"scapes/internal/middleware"
)

// newTokenCommand issues a bearer token for local testing. Production
// tokens come from the identity service.
func newTokenCommand() *cobra.Command {
	var (
		creatorID string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development bearer token for a creator",
		Example: `  # Token for the seeded demo creator
  scapes token

  # Token for another creator, valid for a day
  scapes token --creator alice --ttl 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			signed, err := signToken([]byte(cfg.JWTSecret), creatorID, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&creatorID, "creator", database.DemoCreatorID, "creator id to put in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func signToken(secret []byte, creatorID string, ttl time.Duration, now time.Time) (string, error) {
	if creatorID == "" {
		return "", errors.New("creator id is required")
	}
	claims := middleware.Claims{
		CreatorID: creatorID,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
