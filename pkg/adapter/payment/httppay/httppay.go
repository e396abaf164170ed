// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package httppay adapts an HTTP payment provider as the settlement
// gateway. Every charge carries an Idempotency-Key header, so the
// provider deduplicates retried requests; the call observes a bounded
// timeout so a slow provider cannot stall the exit path indefinitely.
package httppay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/momeni/parkcore/pkg/core/model"
)

// DefaultTimeout bounds a charge round-trip unless the caller's
// context imposes a tighter deadline.
const DefaultTimeout = 5 * time.Second

// Gateway is the HTTP payment provider client.
type Gateway struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func New(endpoint, apiKey string, timeout time.Duration) *Gateway {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// DeclinedError indicates that the provider rejected the charge. It
// is distinct from transport errors so callers can tell a definitive
// decline from an unknown outcome.
type DeclinedError struct {
	StatusCode int
	Reason     string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf(
		"payment declined (status %d): %s", e.StatusCode, e.Reason,
	)
}

func (g *Gateway) Charge(ctx context.Context, req model.PaymentRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling charge: %w", err)
	}
	hreq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, g.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	if g.apiKey != "" {
		hreq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	resp, err := g.client.Do(hreq)
	if err != nil {
		return fmt.Errorf("charge round-trip: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	reason := readReason(resp.Body)
	return &DeclinedError{StatusCode: resp.StatusCode, Reason: reason}
}

func readReason(r io.Reader) string {
	var payload struct {
		Reason string `json:"reason"`
	}
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no reason reported"
	}
	if err := json.Unmarshal(raw, &payload); err != nil ||
		payload.Reason == "" {
		return string(raw)
	}
	return payload.Reason
}
