// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands for the parkd
// daemon. Commands are organized using the cobra library.
// The root command starts the daemon itself, connecting the broker
// consumer and the REST API to the transactional core, while the "db"
// sub-command can be used for the database provisioning actions.
//
//	./parkd [-c /path/of/main/config.yaml]    # start the daemon
//	./parkd db init [-c /path/of/main/config.yaml]
package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momeni/parkcore/pkg/adapter/config"
	"github.com/momeni/parkcore/pkg/adapter/db/postgres"
	"github.com/momeni/parkcore/pkg/adapter/db/postgres/sessionsrp"
	"github.com/momeni/parkcore/pkg/adapter/db/postgres/slotsrp"
	"github.com/momeni/parkcore/pkg/adapter/db/postgres/transrp"
	"github.com/momeni/parkcore/pkg/adapter/db/postgres/violationrp"
	"github.com/momeni/parkcore/pkg/adapter/payment/httppay"
	"github.com/momeni/parkcore/pkg/adapter/queue/amqp"
	"github.com/momeni/parkcore/pkg/adapter/restful/gin/routes"
	"github.com/momeni/parkcore/pkg/core/usecase/routeruc"
	"github.com/momeni/parkcore/pkg/core/usecase/scanuc"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "parkd",
	Short: "The smart-parking transactional core daemon",
	Long: `The smart-parking transactional core daemon owns the
consistency-critical state of a parking facility: slot allocation for
arriving vehicles, sensor-driven slot monitoring, overstay and
unauthorized-occupancy detection, and payment settlement at the exit
gate. Inbound facts arrive over the AMQP broker and over a REST API;
outbound facts and gate commands leave through the broker. All state
transitions go through conditional writes of a versioned state store,
so concurrent facts can never double-book a slot or double-charge a
session.`,
	RunE: startDaemon,
}

func startDaemon(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()
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

	tariffs, err := c.Tariff.NewTariffSource()
	if err != nil {
		return fmt.Errorf("creating tariff source: %w", err)
	}
	payments := httppay.New(
		c.Payment.Endpoint, c.Payment.APIKey, c.Payment.Timeout.Std(),
	)
	dedupStore, err := c.Redis.NewDedupStore(ctx)
	if err != nil {
		return fmt.Errorf("creating dedup store: %w", err)
	}
	publisher, err := amqp.NewPublisher(c.Broker.URL)
	if err != nil {
		return fmt.Errorf("creating broker publisher: %w", err)
	}
	defer publisher.Close()
	gates := amqp.NewGates(publisher)

	rp := routes.Repos{
		Slots:        slotsrp.New(),
		Sessions:     sessionsrp.New(),
		Violations:   violationrp.New(),
		Transactions: transrp.New(),
	}
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
	scanner := scanuc.New(
		p, rp.Slots, rp.Sessions, rp.Violations,
		tariffs, c.Evidence.NewEvidenceCapturer(),
	)
	settle, err := c.NewSettlementUseCase(
		p, rp.Sessions, rp.Slots, rp.Violations, rp.Transactions,
		tariffs, payments,
	)
	if err != nil {
		return fmt.Errorf("creating settlement use case: %w", err)
	}
	router, err := routeruc.New(
		alloc, monitor, scanner, settle, gates, publisher,
		c.Router.Options(dedupStore)...,
	)
	if err != nil {
		return fmt.Errorf("creating event router: %w", err)
	}
	router.Start(ctx)

	consumer := amqp.NewConsumer(c.Broker.URL, router)
	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- consumer.Run(ctx)
	}()

	e := c.Gin.NewEngine()
	if err := routes.Register(e, p, rp, c, tariffs, payments); err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	srv := &http.Server{Addr: ":8080", Handler: e}
	srvDone := make(chan error, 1)
	go func() {
		srvDone <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-srvDone:
		return fmt.Errorf("running HTTP server: %w", err)
	}
	// shutdown: stop accepting HTTP requests, then join the router
	// workers and the consumer
	sctx, cancel := context.WithTimeout(
		context.Background(), 10*time.Second,
	)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		fmt.Fprintf(os.Stderr, "HTTP shutdown: %v\n", err)
	}
	router.Wait()
	if err := <-consumerDone; err != nil &&
		!errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "consumer shutdown: %v\n", err)
	}
	return nil
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default
// value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		cfgPath = "configs/sample-config.yaml"
	}
}
