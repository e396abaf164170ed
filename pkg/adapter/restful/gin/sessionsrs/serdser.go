package sessionsrs

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/momeni/parkcore/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parkcore/pkg/core/model"
)

type rawEntryReq struct {
	FactID     string    `json:"fact_id" binding:"omitempty"`
	VehicleID  string    `json:"vehicle_id" binding:"required"`
	Plate      string    `json:"license_plate" binding:"required"`
	Class      string    `json:"vehicle_class" binding:"required,oneof=compact sedan suv truck"`
	TagID      string    `json:"tag_id" binding:"required"`
	Confidence float64   `json:"confidence" binding:"omitempty,min=0,max=1"`
	Timestamp  time.Time `json:"timestamp" binding:"omitempty"`
}

func (rs *resource) DserEntryReq(c *gin.Context) *model.VehicleIdentified {
	req := &rawEntryReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	class, err := model.ParseSizeClass(req.Class)
	if err != nil {
		panic("unexpected class:" + req.Class)
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	if req.FactID == "" {
		req.FactID = uuid.NewString()
	}
	return &model.VehicleIdentified{
		FactID:     req.FactID,
		VehicleID:  req.VehicleID,
		Plate:      req.Plate,
		Class:      class,
		TagID:      req.TagID,
		Confidence: req.Confidence,
		Timestamp:  req.Timestamp,
	}
}

type rawExitReq struct {
	FactID    string    `json:"fact_id" binding:"omitempty"`
	TagID     string    `json:"tag_id" binding:"required"`
	Timestamp time.Time `json:"timestamp" binding:"omitempty"`
}

func (rs *resource) DserExitReq(c *gin.Context) *model.ExitRequested {
	req := &rawExitReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	if req.FactID == "" {
		req.FactID = uuid.NewString()
	}
	return &model.ExitRequested{
		FactID:    req.FactID,
		TagID:     req.TagID,
		Timestamp: req.Timestamp,
	}
}

type rawSessionsQuery struct {
	Plate string `form:"plate" binding:"omitempty"`
	From  string `form:"from" binding:"omitempty"`
	To    string `form:"to" binding:"omitempty"`
}

type sessionsQuery struct {
	Plate    string
	From, To time.Time
}

func (rs *resource) DserSessionsQuery(c *gin.Context) *sessionsQuery {
	req := &rawSessionsQuery{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return nil
	}
	q := &sessionsQuery{Plate: req.Plate}
	var errs map[string][]string
	var err error
	if req.From != "" {
		q.From, err = time.Parse(time.RFC3339, req.From)
		serdser.Assert(
			&errs, err == nil, "from",
			"Query param from must be an RFC3339 timestamp.",
		)
	}
	if req.To != "" {
		q.To, err = time.Parse(time.RFC3339, req.To)
		serdser.Assert(
			&errs, err == nil, "to",
			"Query param to must be an RFC3339 timestamp.",
		)
	}
	if errs != nil {
		c.JSON(http.StatusBadRequest, errs)
		return nil
	}
	return q
}

// SessionRep is the wire representation of a parking session.
type SessionRep struct {
	ID        uuid.UUID  `json:"id"`
	Plate     string     `json:"license_plate"`
	TagID     string     `json:"tag_id"`
	Class     string     `json:"vehicle_class"`
	SlotID    string     `json:"slot_id"`
	EnteredAt time.Time  `json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
	Status    string     `json:"status"`
}

func SerSession(s *model.Session) *SessionRep {
	return &SessionRep{
		ID:        s.ID,
		Plate:     s.Plate,
		TagID:     s.TagID,
		Class:     s.Class.String(),
		SlotID:    s.SlotID,
		EnteredAt: s.EnteredAt,
		ExitedAt:  s.ExitedAt,
		Status:    string(s.Status),
	}
}

// TransactionRep is the wire representation of a settlement.
type TransactionRep struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Base      int64     `json:"base_cents"`
	Penalty   int64     `json:"penalty_cents"`
	Total     int64     `json:"total_cents"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

func SerTransaction(t *model.Transaction) *TransactionRep {
	return &TransactionRep{
		ID:        t.ID,
		SessionID: t.SessionID,
		Base:      int64(t.Base),
		Penalty:   int64(t.Penalty),
		Total:     int64(t.Total),
		Outcome:   string(t.Outcome),
		CreatedAt: t.CreatedAt,
	}
}
