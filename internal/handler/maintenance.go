package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/repository"
	"github.com/dormhub/dormitory-admin/internal/service"
)

// MaintenanceHandler exposes the maintenance workflow.
type MaintenanceHandler struct {
	Workflow *service.MaintenanceWorkflow
}

// NewMaintenanceHandler constructs a MaintenanceHandler.
func NewMaintenanceHandler(workflow *service.MaintenanceWorkflow) *MaintenanceHandler {
	if workflow == nil {
		panic("nil workflow passed to NewMaintenanceHandler")
	}
	return &MaintenanceHandler{Workflow: workflow}
}

// maintenanceView is the wire representation of a repair record.
type maintenanceView struct {
	ID            uint64  `json:"id"`
	RoomID        uint64  `json:"room_id"`
	ReporterID    uint64  `json:"reporter_id"`
	Issue         string  `json:"issue"`
	Status        string  `json:"status"`
	AssigneeID    *uint64 `json:"assignee_id,omitempty"`
	CompletedDate *string `json:"completed_date,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func viewMaintenance(m *model.Maintenance) maintenanceView {
	v := maintenanceView{
		ID:         m.ID,
		RoomID:     m.RoomID,
		ReporterID: m.ReporterID,
		Issue:      m.Issue,
		Status:     string(m.Status),
		AssigneeID: m.AssigneeID,
		CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.CompletedDate != nil {
		s := m.CompletedDate.UTC().Format(time.RFC3339)
		v.CompletedDate = &s
	}
	return v
}

// Create handles POST /v1/maintenances.  An explicit initial status is
// optional and parsed strictly when present.
func (h *MaintenanceHandler) Create(c echo.Context) error {
	var body struct {
		RoomID     uint64  `json:"room_id"`
		ReporterID uint64  `json:"reporter_id"`
		Issue      string  `json:"issue"`
		Status     string  `json:"status"`
		AssigneeID *uint64 `json:"assignee_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var status model.MaintenanceStatus
	if body.Status != "" {
		parsed, err := model.ParseMaintenanceStatus(body.Status)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		status = parsed
	}
	m, err := h.Workflow.Create(c.Request().Context(), body.RoomID, body.ReporterID, body.Issue, status, body.AssigneeID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, viewMaintenance(m))
}

// SetStatus handles PATCH /v1/maintenances/:id/status.
func (h *MaintenanceHandler) SetStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid maintenance id"})
	}
	var body struct {
		Status     string  `json:"status"`
		AssigneeID *uint64 `json:"assignee_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status, err := model.ParseMaintenanceStatus(body.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	m, err := h.Workflow.SetStatus(c.Request().Context(), id, status, body.AssigneeID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewMaintenance(m))
}

// Delete handles DELETE /v1/maintenances/:id.
func (h *MaintenanceHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid maintenance id"})
	}
	if err := h.Workflow.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/maintenances/:id.
func (h *MaintenanceHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid maintenance id"})
	}
	m, err := h.Workflow.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewMaintenance(m))
}

// List handles GET /v1/maintenances with at most one of room_id,
// status and assignee_id as a filter.
func (h *MaintenanceHandler) List(c echo.Context) error {
	f, err := maintenanceFilterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	records, err := h.Workflow.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	views := make([]maintenanceView, 0, len(records))
	for i := range records {
		views = append(views, viewMaintenance(&records[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"maintenances": views})
}

func maintenanceFilterFromQuery(c echo.Context) (repository.MaintenanceFilter, error) {
	var f repository.MaintenanceFilter
	set := 0
	if s := c.QueryParam("room_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return f, errors.New("invalid room_id")
		}
		f = repository.MaintenanceFilter{Kind: repository.MaintenanceFilterByRoom, RoomID: id}
		set++
	}
	if s := c.QueryParam("status"); s != "" {
		status, err := model.ParseMaintenanceStatus(s)
		if err != nil {
			return f, err
		}
		f = repository.MaintenanceFilter{Kind: repository.MaintenanceFilterByStatus, Status: status}
		set++
	}
	if s := c.QueryParam("assignee_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return f, errors.New("invalid assignee_id")
		}
		f = repository.MaintenanceFilter{Kind: repository.MaintenanceFilterByAssignee, AssigneeID: id}
		set++
	}
	if set > 1 {
		return f, errors.New("at most one of room_id, status and assignee_id may be supplied")
	}
	return f, nil
}
