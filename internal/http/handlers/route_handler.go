// README: Route handlers: plan, inspect, and drive the lifecycle.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rutero/internal/modules/route"
	"rutero/internal/types"
)

type RouteHandler struct {
	routes *route.Service
}

func NewRouteHandler(svc *route.Service) *RouteHandler {
	return &RouteHandler{routes: svc}
}

type planRouteReq struct {
	DepotID      string   `json:"depot_id"`
	DepotLat     float64  `json:"depot_lat"`
	DepotLng     float64  `json:"depot_lng"`
	VehicleID    string   `json:"vehicle_id"`
	CapacityKg   float64  `json:"capacity_kg"`
	CapacityM3   float64  `json:"capacity_m3"`
	StopIDs      []string `json:"stop_ids"`
	DeliveryDate string   `json:"delivery_date"` // YYYY-MM-DD
}

func (h *RouteHandler) Plan(c *gin.Context) {
	var req planRouteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.StopIDs) == 0 {
		writeError(c, http.StatusBadRequest, "stop_ids required")
		return
	}
	date, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, "delivery_date must be YYYY-MM-DD")
		return
	}

	cmd := route.PlanCommand{
		DepotID:         types.ID(req.DepotID),
		DepotCoordinate: types.Point{Lat: req.DepotLat, Lng: req.DepotLng},
		VehicleID:       types.ID(req.VehicleID),
		Capacity:        types.Capacity{WeightKg: req.CapacityKg, VolumeM3: req.CapacityM3},
		DeliveryDate:    date,
	}
	for _, id := range req.StopIDs {
		cmd.StopIDs = append(cmd.StopIDs, types.ID(id))
	}

	r, err := h.routes.Plan(c.Request.Context(), cmd)
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, routeView(r))
}

func (h *RouteHandler) Get(c *gin.Context) {
	r, err := h.routes.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, routeView(r))
}

func (h *RouteHandler) List(c *gin.Context) {
	routes, err := h.routes.List(c.Request.Context())
	if err != nil {
		writeRouteError(c, err)
		return
	}
	out := make([]gin.H, 0, len(routes))
	for _, r := range routes {
		out = append(out, routeSummary(r))
	}
	writeJSON(c, http.StatusOK, gin.H{"routes": out})
}

// LoadPlan returns the loading sequence in load order: position 1 is placed
// first, deepest in the vehicle.
func (h *RouteHandler) LoadPlan(c *gin.Context) {
	r, err := h.routes.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRouteError(c, err)
		return
	}
	items := make([]route.Visit, len(r.Visits))
	copy(items, r.Visits)
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[j].LoadPosition < items[i].LoadPosition {
				items[i], items[j] = items[j], items[i]
			}
		}
	}
	resp := gin.H{"route_id": r.ID, "items": items}
	if r.Guidance != nil {
		resp["guidance"] = r.Guidance
	}
	writeJSON(c, http.StatusOK, resp)
}

func (h *RouteHandler) Start(c *gin.Context) {
	r, err := h.routes.Start(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, routeSummary(r))
}

func (h *RouteHandler) Complete(c *gin.Context) {
	r, err := h.routes.Complete(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, routeSummary(r))
}

func (h *RouteHandler) Cancel(c *gin.Context) {
	r, err := h.routes.Cancel(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, routeSummary(r))
}

func (h *RouteHandler) Deliver(c *gin.Context) {
	r, err := h.routes.Deliver(c.Request.Context(), types.ID(c.Param("id")), types.ID(c.Param("stopID")))
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, routeSummary(r))
}

func routeSummary(r *route.Route) gin.H {
	v := gin.H{
		"route_id":         r.ID,
		"status":           r.Status,
		"delivery_date":    r.DeliveryDate.Format("2006-01-02"),
		"stop_count":       len(r.Visits),
		"total_weight_kg":  r.TotalWeightKg,
		"total_volume_m3":  r.TotalVolumeM3,
		"total_distance_m": r.TotalDistanceMeters,
		"total_duration_s": r.TotalDurationSeconds,
	}
	if r.StartedAt != nil {
		v["started_at"] = r.StartedAt.Format(time.RFC3339)
	}
	if r.CompletedAt != nil {
		v["completed_at"] = r.CompletedAt.Format(time.RFC3339)
	}
	if r.CancelledAt != nil {
		v["cancelled_at"] = r.CancelledAt.Format(time.RFC3339)
	}
	return v
}

func routeView(r *route.Route) gin.H {
	v := routeSummary(r)
	v["depot_id"] = r.DepotID
	v["vehicle_id"] = r.VehicleID
	v["visits"] = r.Visits
	v["polyline"] = r.Geometry.Polyline
	v["maneuvers"] = r.Geometry.Maneuvers
	if r.Guidance != nil {
		v["guidance"] = r.Guidance
	}
	return v
}
