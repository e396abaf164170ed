// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package amqp adapts the AMQP 0-9-1 broker as the inbound fact
// transport and the outbound fact/command publisher. Inbound facts
// arrive on the park.facts and park.sensors queues; outbound facts
// leave through the park.events topic exchange with the fact kind as
// the routing key, and gate commands through the same exchange under
// the gate.open key.
package amqp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/momeni/parkcore/pkg/core/model"
	amqp "github.com/rabbitmq/amqp091-go"
)

const eventsExchange = "park.events"

// Publisher delivers outbound facts to the park.events exchange.
// Deliveries are persistent; a broken channel is re-established on
// the next publish.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	p := &Publisher{url: url}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with p.mu held.
func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dialing broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("opening channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		eventsExchange, "topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declaring exchange: %w", err)
	}
	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) Publish(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.publish(ctx, kind, pub)
	if err == nil {
		return nil
	}
	// one reconnect attempt before reporting the failure
	p.close()
	if err := p.connect(); err != nil {
		return err
	}
	if err := p.publish(ctx, kind, pub); err != nil {
		return fmt.Errorf("publishing %q: %w", kind, err)
	}
	return nil
}

// publish must be called with p.mu held.
func (p *Publisher) publish(
	ctx context.Context, kind string, pub amqp.Publishing,
) error {
	return p.ch.PublishWithContext(
		ctx, eventsExchange, kind,
		false, // mandatory
		false, // immediate
		pub,
	)
}

// close must be called with p.mu held.
func (p *Publisher) close() {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.close()
	return nil
}

// Gates actuates the physical gates by publishing open commands on
// the events exchange; the gateway at the facility consumes them.
type Gates struct {
	pub *Publisher
}

func NewGates(pub *Publisher) *Gates {
	return &Gates{pub: pub}
}

func (g *Gates) Open(ctx context.Context, cmd model.GateCommand) error {
	return g.pub.Publish(ctx, "gate.open", cmd)
}
