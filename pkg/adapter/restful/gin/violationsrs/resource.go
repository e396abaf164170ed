// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package violationsrs realizes the violations resource, reporting
// the detected violations filtered by their resolution status.
package violationsrs

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/usecase/queryuc"
)

type resource struct {
	query *queryuc.UseCase
}

// Register instantiates a resource adapting the query use case with
// the relevant REST APIs including:
//  1. GET request to /api/parkcore/v1/violations
//     in order to list violations by their resolution status.
func Register(r *gin.RouterGroup, query *queryuc.UseCase) {
	rs := &resource{query: query}
	r.GET("violations", rs.ListViolations)
}

type rawViolationsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=unpaid paid"`
}

func (rs *resource) ListViolations(c *gin.Context) {
	req := &rawViolationsQuery{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return
	}
	if req.Status == "" {
		req.Status = string(model.ViolationUnpaid)
	}
	violations, err := rs.query.Violations(
		c, model.ViolationStatus(req.Status),
	)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	out := make([]*ViolationRep, len(violations))
	for i := range violations {
		out[i] = SerViolation(&violations[i])
	}
	c.JSON(http.StatusOK, out)
}

// ViolationRep is the wire representation of a violation record.
type ViolationRep struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	DetectedAt time.Time  `json:"detected_at"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"`
	SlotID     string     `json:"slot_id"`
	Penalty    int64      `json:"penalty_cents"`
	Status     string     `json:"status"`
	Evidence   string     `json:"evidence,omitempty"`
}

func SerViolation(v *model.Violation) *ViolationRep {
	return &ViolationRep{
		ID:         v.ID,
		Type:       string(v.Type),
		DetectedAt: v.DetectedAt,
		SessionID:  v.SessionID,
		SlotID:     v.SlotID,
		Penalty:    int64(v.Penalty),
		Status:     string(v.Status),
		Evidence:   v.Evidence,
	}
}
