package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/service"
)

// RoomHandler exposes the room registry: reads for anyone interested
// in a room's state, and the occupancy adjustment consumed by the
// enrollment flow when a student first moves in or checks out.
type RoomHandler struct {
	Registry *service.RoomRegistry
}

// NewRoomHandler constructs a RoomHandler.
func NewRoomHandler(registry *service.RoomRegistry) *RoomHandler {
	if registry == nil {
		panic("nil registry passed to NewRoomHandler")
	}
	return &RoomHandler{Registry: registry}
}

// roomView is the wire representation of a room.
type roomView struct {
	ID              uint64 `json:"id"`
	BuildingID      uint64 `json:"building_id"`
	Number          string `json:"number"`
	Capacity        int    `json:"capacity"`
	ActualOccupancy int    `json:"actual_occupancy"`
	Status          string `json:"status"`
	UpdatedAt       string `json:"updated_at"`
}

func viewRoom(r *model.Room) roomView {
	return roomView{
		ID:              r.ID,
		BuildingID:      r.BuildingID,
		Number:          r.Number,
		Capacity:        r.Capacity,
		ActualOccupancy: r.ActualOccupancy,
		Status:          string(r.Status),
		UpdatedAt:       r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// GetRoom handles GET /v1/rooms/:id.
func (h *RoomHandler) GetRoom(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	room, err := h.Registry.GetRoom(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewRoom(room))
}

// AdjustOccupancy handles POST /v1/rooms/:id/occupancy.  The body
// carries a signed delta; the registry enforces the capacity bounds
// and re-derives the status.
func (h *RoomHandler) AdjustOccupancy(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var body struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Delta == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta must be non-zero"})
	}
	room, err := h.Registry.AdjustOccupancy(c.Request().Context(), id, body.Delta)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewRoom(room))
}
