package slotsrs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parkcore/pkg/core/model"
	"github.com/momeni/parkcore/pkg/core/usecase/queryuc"
)

type rawSensorURI struct {
	SlotID string `uri:"sid" binding:"required"`
}

type rawSensorReq struct {
	FactID    string    `json:"fact_id" binding:"omitempty"`
	Status    string    `json:"status" binding:"required,oneof=vacant occupied unknown"`
	SensorID  string    `json:"sensor_id" binding:"required"`
	Token     string    `json:"token" binding:"required"`
	Timestamp time.Time `json:"timestamp" binding:"omitempty"`
}

func (rs *resource) DserSensorReq(c *gin.Context) *model.SlotStatusChanged {
	uri := &rawSensorURI{}
	if ok := serdser.BindURI(c, uri); !ok {
		return nil
	}
	req := &rawSensorReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	if req.FactID == "" {
		req.FactID = uuid.NewString()
	}
	return &model.SlotStatusChanged{
		FactID:    req.FactID,
		SlotID:    uri.SlotID,
		Status:    model.SlotStatus(req.Status),
		SensorID:  req.SensorID,
		Token:     req.Token,
		Timestamp: req.Timestamp,
	}
}

// OccupancyRep is the wire representation of one per-class occupancy
// aggregate.
type OccupancyRep struct {
	Class    string `json:"class"`
	Total    int    `json:"total"`
	Vacant   int    `json:"vacant"`
	Occupied int    `json:"occupied"`
	Unknown  int    `json:"unknown"`
}

func SerOccupancy(o *queryuc.Occupancy) *OccupancyRep {
	return &OccupancyRep{
		Class:    o.Class.String(),
		Total:    o.Total,
		Vacant:   o.Vacant,
		Occupied: o.Occupied,
		Unknown:  o.Unknown,
	}
}
