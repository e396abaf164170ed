// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sessionsrs realizes the sessions resource, allowing the
// entry, exit, and session history REST APIs to be accepted and
// delegated to the allocation, settlement, and query use cases
// respectively.
package sessionsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parkcore/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parkcore/pkg/core/usecase/allocuc"
	"github.com/momeni/parkcore/pkg/core/usecase/queryuc"
	"github.com/momeni/parkcore/pkg/core/usecase/settleuc"
)

type resource struct {
	alloc  *allocuc.UseCase
	settle *settleuc.UseCase
	query  *queryuc.UseCase
}

// Register instantiates a resource adapting the entry/exit use cases
// with the relevant REST APIs including:
//  1. POST request to /api/parkcore/v1/entries
//     in order to allocate a slot for an arriving vehicle.
//  2. POST request to /api/parkcore/v1/exits
//     in order to settle and close the session of a leaving vehicle.
//  3. GET request to /api/parkcore/v1/sessions
//     in order to query the session history.
func Register(
	r *gin.RouterGroup,
	alloc *allocuc.UseCase,
	settle *settleuc.UseCase,
	query *queryuc.UseCase,
) {
	rs := &resource{alloc: alloc, settle: settle, query: query}
	r.POST("entries", rs.CreateEntry)
	r.POST("exits", rs.CreateExit)
	r.GET("sessions", rs.ListSessions)
}

func (rs *resource) CreateEntry(c *gin.Context) {
	fact := rs.DserEntryReq(c)
	if fact == nil {
		return
	}
	sess, err := rs.alloc.Allocate(c, *fact)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, SerSession(sess))
}

func (rs *resource) CreateExit(c *gin.Context) {
	fact := rs.DserExitReq(c)
	if fact == nil {
		return
	}
	trans, err := rs.settle.Settle(c, *fact)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerTransaction(trans))
}

func (rs *resource) ListSessions(c *gin.Context) {
	q := rs.DserSessionsQuery(c)
	if q == nil {
		return
	}
	sessions, err := rs.query.Sessions(c, q.Plate, q.From, q.To)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	out := make([]*SessionRep, len(sessions))
	for i := range sessions {
		out[i] = SerSession(&sessions[i])
	}
	c.JSON(http.StatusOK, out)
}
