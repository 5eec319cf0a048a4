package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/queue"
	"github.com/dormhub/dormitory-admin/internal/repository"
	"github.com/dormhub/dormitory-admin/internal/service"
)

// TransferHandler exposes the transfer workflow.  Completion publishes
// a transfer.completed event after the transaction has committed;
// event delivery is best-effort and never fails the request.
type TransferHandler struct {
	Workflow *service.TransferWorkflow
}

// NewTransferHandler constructs a TransferHandler.
func NewTransferHandler(workflow *service.TransferWorkflow) *TransferHandler {
	if workflow == nil {
		panic("nil workflow passed to NewTransferHandler")
	}
	return &TransferHandler{Workflow: workflow}
}

// transferView is the wire representation of a transfer request.
type transferView struct {
	ID            uint64  `json:"id"`
	StudentID     uint64  `json:"student_id"`
	FromRoomID    *uint64 `json:"from_room_id,omitempty"`
	ToRoomID      uint64  `json:"to_room_id"`
	RequestedDate string  `json:"requested_date"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	ApproverID    *uint64 `json:"approver_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func viewTransfer(tr *model.RoomTransfer) transferView {
	return transferView{
		ID:            tr.ID,
		StudentID:     tr.StudentID,
		FromRoomID:    tr.FromRoomID,
		ToRoomID:      tr.ToRoomID,
		RequestedDate: tr.RequestedDate.UTC().Format("2006-01-02"),
		Reason:        tr.Reason,
		Status:        string(tr.Status),
		ApproverID:    tr.ApproverID,
		CreatedAt:     tr.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Create handles POST /v1/transfers.
func (h *TransferHandler) Create(c echo.Context) error {
	var body struct {
		StudentID     uint64 `json:"student_id"`
		ToRoomID      uint64 `json:"to_room_id"`
		RequestedDate string `json:"requested_date"`
		Reason        string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date := time.Now().UTC()
	if body.RequestedDate != "" {
		parsed, err := time.Parse("2006-01-02", body.RequestedDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "requested_date must be YYYY-MM-DD"})
		}
		date = parsed
	}
	tr, err := h.Workflow.CreateRequest(c.Request().Context(), body.StudentID, body.ToRoomID, date, body.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, viewTransfer(tr))
}

// SetStatus handles PATCH /v1/transfers/:id/status.  The status string
// is parsed strictly; unknown values are rejected.
func (h *TransferHandler) SetStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transfer id"})
	}
	var body struct {
		Status     string  `json:"status"`
		ApproverID *uint64 `json:"approver_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status, err := model.ParseTransferStatus(body.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	tr, err := h.Workflow.SetStatus(c.Request().Context(), id, status, body.ApproverID)
	if err != nil {
		return writeError(c, err)
	}
	if tr.Status == model.TransferCompleted {
		_ = service.PublishTransferCompleted(c.Request().Context(), queue.TransferCompletedEvent{
			TransferID:  tr.ID,
			StudentID:   tr.StudentID,
			FromRoomID:  tr.FromRoomID,
			ToRoomID:    tr.ToRoomID,
			ApproverID:  tr.ApproverID,
			CompletedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, viewTransfer(tr))
}

// Delete handles DELETE /v1/transfers/:id.
func (h *TransferHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transfer id"})
	}
	if err := h.Workflow.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/transfers.  At most one of student_id, status
// and room_id may be supplied; the combination is validated as a
// tagged filter before any query runs.
func (h *TransferHandler) List(c echo.Context) error {
	f, err := transferFilterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	transfers, err := h.Workflow.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	views := make([]transferView, 0, len(transfers))
	for i := range transfers {
		views = append(views, viewTransfer(&transfers[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"transfers": views})
}

func transferFilterFromQuery(c echo.Context) (repository.TransferFilter, error) {
	var f repository.TransferFilter
	set := 0
	if s := c.QueryParam("student_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return f, errors.New("invalid student_id")
		}
		f = repository.TransferFilter{Kind: repository.TransferFilterByStudent, StudentID: id}
		set++
	}
	if s := c.QueryParam("status"); s != "" {
		status, err := model.ParseTransferStatus(s)
		if err != nil {
			return f, err
		}
		f = repository.TransferFilter{Kind: repository.TransferFilterByStatus, Status: status}
		set++
	}
	if s := c.QueryParam("room_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return f, errors.New("invalid room_id")
		}
		f = repository.TransferFilter{Kind: repository.TransferFilterByRoom, RoomID: id}
		set++
	}
	if set > 1 {
		return f, errors.New("at most one of student_id, status and room_id may be supplied")
	}
	return f, nil
}
