// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package evidence adapts the facility camera gateway as the
// violation evidence source. The Camera client asks the gateway to
// snapshot a slot and returns the archived object key; the Archive
// variant derives the key without any network round-trip, for
// facilities whose cameras record continuously.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Camera requests a snapshot from the camera gateway.
type Camera struct {
	endpoint string
	client   *http.Client
}

func NewCamera(endpoint string, timeout time.Duration) *Camera {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &Camera{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Camera) Capture(
	ctx context.Context, slotID string,
) (string, error) {
	body, err := json.Marshal(map[string]string{"slot_id": slotID})
	if err != nil {
		return "", fmt.Errorf("marshaling capture request: %w", err)
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("capture round-trip: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf(
			"camera gateway status: %d", resp.StatusCode,
		)
	}
	var payload struct {
		ObjectKey string `json:"object_key"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if payload.ObjectKey == "" {
		return "", fmt.Errorf("camera gateway returned no object key")
	}
	return payload.ObjectKey, nil
}

// Archive derives the continuous-recording archive key of a slot at
// the capture instant, without contacting any gateway.
type Archive struct {
	prefix string
	now    func() time.Time
}

func NewArchive(prefix string) *Archive {
	return &Archive{prefix: prefix, now: time.Now}
}

func (a *Archive) Capture(
	ctx context.Context, slotID string,
) (string, error) {
	return fmt.Sprintf(
		"%s/%s/%s.jpg",
		a.prefix, slotID, a.now().UTC().Format("20060102T150405Z"),
	), nil
}
