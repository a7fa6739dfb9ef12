// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"github.com/spf13/cobra"

	"scapes/internal/cache"
)

func newFlushCacheCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flush-cache",
		Short: "Drop every cached public scape view",
		Long: `Public views embed resolved media URLs. Run this after changing
S3_PUBLIC_URL or the bucket so readers stop seeing stale links.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
			if err != nil {
				return err
			}
			defer client.Close()
			cache.NewScapeCache(client, 0).InvalidateAll(cmd.Context())
			return nil
		},
	}
}
