package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/queue"
	"github.com/dormhub/dormitory-admin/internal/service"
)

// BillingHandler exposes the billing ledger.  A recorded payment
// publishes a payment.recorded event after commit; delivery is
// best-effort.
type BillingHandler struct {
	Ledger *service.BillingLedger
}

// NewBillingHandler constructs a BillingHandler.
func NewBillingHandler(ledger *service.BillingLedger) *BillingHandler {
	if ledger == nil {
		panic("nil ledger passed to NewBillingHandler")
	}
	return &BillingHandler{Ledger: ledger}
}

type itemInput struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

func toItems(in []itemInput) []model.InvoiceItem {
	items := make([]model.InvoiceItem, 0, len(in))
	for _, it := range in {
		items = append(items, model.InvoiceItem{Description: it.Description, Amount: it.Amount})
	}
	return items
}

// invoiceView is the wire representation of an invoice.
type invoiceView struct {
	ID          uint64     `json:"id"`
	StudentID   *uint64    `json:"student_id,omitempty"`
	RoomID      *uint64    `json:"room_id,omitempty"`
	TotalAmount int64      `json:"total_amount"`
	PaidAmount  int64      `json:"paid_amount"`
	Status      string     `json:"status"`
	DueDate     string     `json:"due_date"`
	Items       []itemView `json:"items,omitempty"`
}

type itemView struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

func viewInvoice(inv *model.Invoice, items []model.InvoiceItem) invoiceView {
	v := invoiceView{
		ID:          inv.ID,
		StudentID:   inv.StudentID,
		RoomID:      inv.RoomID,
		TotalAmount: inv.TotalAmount,
		PaidAmount:  inv.PaidAmount,
		Status:      string(inv.Status),
		DueDate:     inv.DueDate.UTC().Format("2006-01-02"),
	}
	for _, it := range items {
		v.Items = append(v.Items, itemView{ID: it.ID, Description: it.Description, Amount: it.Amount})
	}
	return v
}

// paymentView is the wire representation of a payment.
type paymentView struct {
	ID          uint64 `json:"id"`
	InvoiceID   uint64 `json:"invoice_id"`
	Amount      int64  `json:"amount"`
	PaymentDate string `json:"payment_date"`
	Method      string `json:"method,omitempty"`
	Note        string `json:"note,omitempty"`
}

func viewPayment(p *model.Payment) paymentView {
	return paymentView{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate.UTC().Format("2006-01-02"),
		Method:      p.Method,
		Note:        p.Note,
	}
}

// CreateInvoice handles POST /v1/invoices.
func (h *BillingHandler) CreateInvoice(c echo.Context) error {
	var body struct {
		StudentID *uint64     `json:"student_id"`
		RoomID    *uint64     `json:"room_id"`
		DueDate   string      `json:"due_date"`
		Items     []itemInput `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	due, err := time.Parse("2006-01-02", body.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be YYYY-MM-DD"})
	}
	inv, err := h.Ledger.CreateInvoice(c.Request().Context(), body.StudentID, body.RoomID, due, toItems(body.Items))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, viewInvoice(inv, nil))
}

// GetInvoice handles GET /v1/invoices/:id.
func (h *BillingHandler) GetInvoice(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	inv, items, err := h.Ledger.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewInvoice(inv, items))
}

// ReplaceItems handles PUT /v1/invoices/:id/items.
func (h *BillingHandler) ReplaceItems(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	var body struct {
		Items []itemInput `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	inv, err := h.Ledger.ReplaceItems(c.Request().Context(), id, toItems(body.Items))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewInvoice(inv, nil))
}

// DeleteInvoice handles DELETE /v1/invoices/:id.
func (h *BillingHandler) DeleteInvoice(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	if err := h.Ledger.DeleteInvoice(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RecordPayment handles POST /v1/invoices/:id/payments.
func (h *BillingHandler) RecordPayment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	var body struct {
		Amount      int64  `json:"amount"`
		PaymentDate string `json:"payment_date"`
		Method      string `json:"method"`
		Note        string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date := time.Now().UTC()
	if body.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", body.PaymentDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_date must be YYYY-MM-DD"})
		}
		date = parsed
	}
	p, err := h.Ledger.RecordPayment(c.Request().Context(), id, body.Amount, date, body.Method, body.Note)
	if err != nil {
		return writeError(c, err)
	}
	if inv, _, err := h.Ledger.GetInvoice(c.Request().Context(), id); err == nil {
		_ = service.PublishPaymentRecorded(c.Request().Context(), queue.PaymentRecordedEvent{
			PaymentID:  p.ID,
			InvoiceID:  id,
			Amount:     p.Amount,
			Status:     string(inv.Status),
			RecordedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusCreated, viewPayment(p))
}

// ListPayments handles GET /v1/invoices/:id/payments.
func (h *BillingHandler) ListPayments(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	payments, err := h.Ledger.ListPayments(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	views := make([]paymentView, 0, len(payments))
	for i := range payments {
		views = append(views, viewPayment(&payments[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": views})
}

// UpdatePaymentMeta handles PATCH /v1/payments/:id.  Only method and
// note are mutable; amount and date are part of the ledger history.
func (h *BillingHandler) UpdatePaymentMeta(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	var body struct {
		Method string `json:"method"`
		Note   string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Ledger.UpdatePaymentMeta(c.Request().Context(), id, body.Method, body.Note); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkOverdue handles POST /v1/invoices/:id/overdue, used by the
// periodic dunning job outside this service.
func (h *BillingHandler) MarkOverdue(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice id"})
	}
	inv, err := h.Ledger.MarkOverdue(c.Request().Context(), id, time.Now().UTC())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewInvoice(inv, nil))
}
