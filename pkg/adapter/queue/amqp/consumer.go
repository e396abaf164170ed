package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/momeni/parkcore/pkg/core/log"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/usecase/routeruc"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	factsQueue   = "park.facts"
	sensorsQueue = "park.sensors"
)

// Fact kind discriminators of the park.facts queue envelope.
const (
	kindVehicleIdentified = "vehicle.identified"
	kindExitRequested     = "exit.requested"
)

// Consumer feeds the inbound fact queues into the event router. A
// delivery is acknowledged only after the router reports that the
// fact was applied (or consumed as a business rejection); failed
// deliveries are requeued once and dead on the second failure.
type Consumer struct {
	url      string
	router   *routeruc.Router
	prefetch int
	backoff  time.Duration
}

func NewConsumer(url string, r *routeruc.Router) *Consumer {
	return &Consumer{
		url:      url,
		router:   r,
		prefetch: 32,
		backoff:  time.Second,
	}
}

// Run consumes until ctx is canceled, reconnecting with an
// exponential backoff after broker failures.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.backoff
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn(ctx, "consumer disconnected, reconnecting",
			log.Err("error", err),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dialing broker: %w", err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("setting QoS: %w", err)
	}
	for _, name := range []string{factsQueue, sensorsQueue} {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declaring queue %q: %w", name, err)
		}
	}
	facts, err := ch.Consume(factsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming %q: %w", factsQueue, err)
	}
	sensors, err := ch.Consume(sensorsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming %q: %w", sensorsQueue, err)
	}
	for {
		select {
		case d, ok := <-facts:
			if !ok {
				return fmt.Errorf("%s deliveries channel closed", factsQueue)
			}
			c.settle(ctx, d, c.handleFact(ctx, d.Body))
		case d, ok := <-sensors:
			if !ok {
				return fmt.Errorf("%s deliveries channel closed", sensorsQueue)
			}
			c.settle(ctx, d, c.handleSensor(ctx, d.Body))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// settle acknowledges or rejects the delivery based on the routing
// outcome. A first failure requeues; a redelivered failure is dead to
// avoid a poison-message loop.
func (c *Consumer) settle(ctx context.Context, d amqp.Delivery, err error) {
	if err == nil {
		if err := d.Ack(false); err != nil {
			log.Warn(ctx, "ack failed", log.Err("error", err))
		}
		return
	}
	requeue := !d.Redelivered
	log.Warn(ctx, "fact processing failed",
		log.Err("error", err),
		slog.Bool("requeue", requeue),
	)
	if err := d.Nack(false, requeue); err != nil {
		log.Warn(ctx, "nack failed", log.Err("error", err))
	}
}

// vehicleIdentifiedWire carries the entry fact with its size-class as
// a string, parsed before it enters the core.
type vehicleIdentifiedWire struct {
	model.VehicleIdentified
	VehicleClass string `json:"vehicle_class"`
}

func (c *Consumer) handleFact(ctx context.Context, body []byte) error {
	var env struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshaling envelope: %w", err)
	}
	switch env.Kind {
	case kindVehicleIdentified:
		var w vehicleIdentifiedWire
		if err := json.Unmarshal(body, &w); err != nil {
			return fmt.Errorf("unmarshaling entry fact: %w", err)
		}
		class, err := model.ParseSizeClass(w.VehicleClass)
		if err != nil {
			return fmt.Errorf("vehicle class %q: %w", w.VehicleClass, err)
		}
		fact := w.VehicleIdentified
		fact.Class = class
		return c.router.SubmitVehicleIdentified(ctx, fact)
	case kindExitRequested:
		var fact model.ExitRequested
		if err := json.Unmarshal(body, &fact); err != nil {
			return fmt.Errorf("unmarshaling exit fact: %w", err)
		}
		return c.router.SubmitExitRequested(ctx, fact)
	default:
		return fmt.Errorf("unknown fact kind: %q", env.Kind)
	}
}

func (c *Consumer) handleSensor(ctx context.Context, body []byte) error {
	var fact model.SlotStatusChanged
	if err := json.Unmarshal(body, &fact); err != nil {
		return fmt.Errorf("unmarshaling sensor fact: %w", err)
	}
	return c.router.SubmitSlotStatusChanged(ctx, fact)
}
