// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/momeni/parkcore/pkg/adapter/config"
	"github.com/momeni/parkcore/pkg/adapter/db/postgres"
	"github.com/momeni/parkcore/pkg/adapter/db/postgres/slotsrp"
	"github.com/momeni/parkcore/pkg/core/repo"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database provisioning actions",
	Long: `Database provisioning actions can be chosen by
sub-commands. For a fresh installation, the init action creates the
state store schema and seeds the slots which are listed in the
configuration file. Re-running init is harmless: the schema
statements are idempotent and already provisioned slots are kept
untouched.`,
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema and seed the configured slots",
	RunE:  initDatabase,
}

func initDatabase(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	u, err := c.Database.ConnectionURL()
	if err != nil {
		return fmt.Errorf("resolving DB connection URL: %w", err)
	}
	p, err := postgres.NewPool(ctx, u)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	slots := slotsrp.New()
	return p.Conn(ctx, func(ctx context.Context, conn repo.Conn) error {
		pc := conn.(*postgres.Conn)
		if err := postgres.InitSchema(ctx, pc); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
		sq := slots.Conn(conn)
		var seeded, kept int
		for _, seed := range c.Slots {
			s := seed.Model()
			switch err := sq.Create(ctx, &s); {
			case err == nil:
				seeded++
			case errors.Is(err, repo.ErrConflict):
				kept++ // already provisioned
			default:
				return fmt.Errorf("seeding slot %q: %w", s.ID, err)
			}
		}
		fmt.Printf("slots: %d seeded, %d already present\n", seeded, kept)
		return nil
	})
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
	rootCmd.AddCommand(dbCmd)
}
