// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all repo, use case, and resource
// packages based on the user provided configuration settings.
package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parkcore/pkg/adapter/config"
	"github.com/momeni/parkcore/pkg/adapter/restful/gin/sessionsrs"
	"github.com/momeni/parkcore/pkg/adapter/restful/gin/slotsrs"
	"github.com/momeni/parkcore/pkg/adapter/restful/gin/violationsrs"
	"github.com/momeni/parkcore/pkg/core/port"
	"github.com/momeni/parkcore/pkg/core/repo"
	"github.com/momeni/parkcore/pkg/core/usecase/queryuc"
)

// Repos aggregates the entity repositories of one state store
// implementation, so the same route registration logic serves the
// PostgreSQL-backed daemon and the memory-backed tests.
type Repos struct {
	Slots        repo.Slots
	Sessions     repo.Sessions
	Violations   repo.Violations
	Transactions repo.Transactions
}

// Register instantiates the use cases based on the c configuration
// settings and registers the REST resources on the e engine. The p
// connections pool is passed to the use case instances, so they may
// acquire/release connections and transactions on demand. These
// connections/transactions will be passed to the repositories later
// in order to run relevant queries on them and accomplish those use
// cases. Each use case package is named like allocuc and each
// resource package is named like sessionsrs.
func Register(
	e *gin.Engine, p repo.Pool, rp Repos, c *config.Config,
	tariffs port.TariffSource, payments port.PaymentGateway,
) error {
	alloc, err := c.NewAllocatorUseCase(
		p, rp.Slots, rp.Sessions, tariffs,
	)
	if err != nil {
		return fmt.Errorf("creating allocation use case: %w", err)
	}
	monitor, err := c.NewMonitorUseCase(p, rp.Slots)
	if err != nil {
		return fmt.Errorf("creating monitor use case: %w", err)
	}
	settle, err := c.NewSettlementUseCase(
		p, rp.Sessions, rp.Slots, rp.Violations, rp.Transactions,
		tariffs, payments,
	)
	if err != nil {
		return fmt.Errorf("creating settlement use case: %w", err)
	}
	query := queryuc.New(p, rp.Slots, rp.Sessions, rp.Violations)

	r := e.Group("/api/parkcore/v1")
	sessionsrs.Register(r, alloc, settle, query)
	slotsrs.Register(r, monitor, query)
	violationsrs.Register(r, query)
	return nil
}
