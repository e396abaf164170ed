// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveDerivesObjectKey(t *testing.T) {
	a := NewArchive("camera-archive")
	a.now = func() time.Time {
		return time.Date(2026, 8, 20, 10, 30, 45, 0, time.UTC)
	}
	key, err := a.Capture(context.Background(), "A-01")
	require.NoError(t, err)
	assert.Equal(t, "camera-archive/A-01/20260820T103045Z.jpg", key)
}

func TestCameraCapturesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req map[string]string
			err := json.NewDecoder(r.Body).Decode(&req)
			assert.NoError(t, err)
			assert.Equal(t, "A-01", req["slot_id"])
			_ = json.NewEncoder(w).Encode(map[string]string{
				"object_key": "snapshots/A-01/0001.jpg",
			})
		},
	))
	defer srv.Close()

	c := NewCamera(srv.URL, time.Second)
	key, err := c.Capture(context.Background(), "A-01")
	require.NoError(t, err)
	assert.Equal(t, "snapshots/A-01/0001.jpg", key)
}

func TestCameraReportsGatewayFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "busy", http.StatusServiceUnavailable)
		},
	))
	defer srv.Close()

	c := NewCamera(srv.URL, time.Second)
	_, err := c.Capture(context.Background(), "A-01")
	assert.Error(t, err)
}

func TestCameraRejectsEmptyObjectKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		},
	))
	defer srv.Close()

	c := NewCamera(srv.URL, time.Second)
	_, err := c.Capture(context.Background(), "A-01")
	assert.Error(t, err)
}
