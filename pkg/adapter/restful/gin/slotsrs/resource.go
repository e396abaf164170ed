// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package slotsrs realizes the slots resource, accepting sensor
// observations for a slot and reporting the per-class occupancy.
package slotsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parkcore/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parkcore/pkg/core/usecase/monitoruc"
	"github.com/momeni/parkcore/pkg/core/usecase/queryuc"
)

type resource struct {
	monitor *monitoruc.UseCase
	query   *queryuc.UseCase
}

// Register instantiates a resource adapting the slot monitor and
// query use cases with the relevant REST APIs including:
//  1. POST request to /api/parkcore/v1/slots/:sid/sensor
//     in order to apply a sensor observation to a slot.
//  2. GET request to /api/parkcore/v1/occupancy
//     in order to report the per-class occupancy counts.
func Register(
	r *gin.RouterGroup,
	monitor *monitoruc.UseCase,
	query *queryuc.UseCase,
) {
	rs := &resource{monitor: monitor, query: query}
	r.POST("slots/:sid/sensor", rs.ApplySensor)
	r.GET("occupancy", rs.GetOccupancy)
}

func (rs *resource) ApplySensor(c *gin.Context) {
	fact := rs.DserSensorReq(c)
	if fact == nil {
		return
	}
	if err := rs.monitor.ApplySensorEvent(c, *fact); err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (rs *resource) GetOccupancy(c *gin.Context) {
	occ, err := rs.query.Occupancy(c)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	out := make([]*OccupancyRep, len(occ))
	for i := range occ {
		out[i] = SerOccupancy(&occ[i])
	}
	c.JSON(http.StatusOK, out)
}
