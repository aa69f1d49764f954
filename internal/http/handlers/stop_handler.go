// README: Stop pool handlers: register stops, list the pending pool.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rutero/internal/modules/stop"
	"rutero/internal/types"
)

type StopHandler struct {
	stops *stop.Service
}

func NewStopHandler(svc *stop.Service) *StopHandler {
	return &StopHandler{stops: svc}
}

type cargoLineReq struct {
	Product      string  `json:"product"`
	Quantity     int     `json:"quantity"`
	UnitWeightKg float64 `json:"unit_weight_kg"`
}

type createStopReq struct {
	Customer       string         `json:"customer"`
	Address        string         `json:"address"`
	Lat            *float64       `json:"lat"`
	Lng            *float64       `json:"lng"`
	WeightKg       float64        `json:"weight_kg"`
	VolumeM3       float64        `json:"volume_m3"`
	WindowEarliest *int           `json:"window_earliest"`
	WindowLatest   *int           `json:"window_latest"`
	Priority       string         `json:"priority"`
	Cargo          []cargoLineReq `json:"cargo"`
}

func (h *StopHandler) Create(c *gin.Context) {
	var req createStopReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := stop.CreateCommand{
		Customer: req.Customer,
		Address:  req.Address,
		Demand:   types.Demand{WeightKg: req.WeightKg, VolumeM3: req.VolumeM3},
		Priority: stop.Priority(req.Priority),
	}
	if req.Lat != nil && req.Lng != nil {
		cmd.Coordinate = &types.Point{Lat: *req.Lat, Lng: *req.Lng}
	}
	if req.WindowEarliest != nil || req.WindowLatest != nil {
		w := types.TimeWindow{Earliest: 0, Latest: types.EndOfDay}
		if req.WindowEarliest != nil {
			w.Earliest = *req.WindowEarliest
		}
		if req.WindowLatest != nil {
			w.Latest = *req.WindowLatest
		}
		cmd.Window = &w
	}
	for _, line := range req.Cargo {
		cmd.Cargo = append(cmd.Cargo, stop.CargoLine{
			Product:      line.Product,
			Quantity:     line.Quantity,
			UnitWeightKg: line.UnitWeightKg,
		})
	}

	id, err := h.stops.Create(c.Request.Context(), cmd)
	if err != nil {
		writeStopError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"stop_id": id})
}

func (h *StopHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing stop id")
		return
	}
	st, err := h.stops.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeStopError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, stopView(st))
}

func (h *StopHandler) ListPending(c *gin.Context) {
	stops, err := h.stops.ListPending(c.Request.Context())
	if err != nil {
		writeStopError(c, err)
		return
	}
	out := make([]gin.H, 0, len(stops))
	for _, st := range stops {
		out = append(out, stopView(st))
	}
	writeJSON(c, http.StatusOK, gin.H{"stops": out})
}

func stopView(st *stop.Stop) gin.H {
	v := gin.H{
		"stop_id":    st.ID,
		"customer":   st.Customer,
		"address":    st.Address,
		"weight_kg":  st.Demand.WeightKg,
		"volume_m3":  st.Demand.VolumeM3,
		"priority":   st.Priority,
		"cargo":      st.Cargo,
		"routable":   st.Routable(),
		"created_at": st.CreatedAt.Format(time.RFC3339),
	}
	if st.Coordinate != nil {
		v["lat"] = st.Coordinate.Lat
		v["lng"] = st.Coordinate.Lng
	}
	if st.Window != nil {
		v["window_earliest"] = st.Window.Earliest
		v["window_latest"] = st.Window.Latest
	}
	if st.RouteID != nil {
		v["route_id"] = *st.RouteID
	}
	return v
}
