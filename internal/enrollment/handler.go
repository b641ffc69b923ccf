package enrollment

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
	"github.com/arihant-coaching/coaching_api/internal/gateway"
)

// Handler exposes checkout and admin enrollment endpoints.
type Handler struct {
	service  *Service
	gateway  gateway.Gateway
	currency string
}

// NewHandler builds the enrollment HTTP handler.
func NewHandler(service *Service, gw gateway.Gateway, currency string) *Handler {
	return &Handler{service: service, gateway: gw, currency: currency}
}

type paymentResponse struct {
	ID          string    `json:"id"`
	StudentName string    `json:"studentName"`
	Email       string    `json:"email"`
	Course      string    `json:"course"`
	Amount      int64     `json:"amount"`
	PaymentID   string    `json:"paymentId"`
	OrderID     string    `json:"orderId,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toPaymentResponse(p PaymentRecord) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		StudentName: p.StudentName,
		Email:       p.Email,
		Course:      p.CourseRef,
		Amount:      p.Amount,
		PaymentID:   p.ExternalPaymentID,
		OrderID:     p.OrderID,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
}

type admissionResponse struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"paymentRecordId"`
	StudentName string    `json:"studentName"`
	Standard    string    `json:"standard"`
	Medium      string    `json:"medium"`
	Contact     string    `json:"contact"`
	Email       string    `json:"email"`
	ReceiptRef  string    `json:"pdfLink,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toAdmissionResponse(a AdmissionRecord) admissionResponse {
	return admissionResponse{
		ID:          a.ID,
		PaymentID:   a.PaymentID,
		StudentName: a.StudentName,
		Standard:    a.Standard,
		Medium:      a.Medium,
		Contact:     a.Contact,
		Email:       a.Email,
		ReceiptRef:  a.ReceiptRef,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// Config returns the public checkout settings.
func (h *Handler) Config(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"key_id": h.gateway.PublicKey(), "currency": h.currency})
}

type orderRequest struct {
	Amount int64             `json:"amount"`
	Notes  map[string]string `json:"notes"`
}

// CreateOrder opens a checkout order with the payment provider.
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	var req orderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	order, err := h.gateway.CreateOrder(c.UserContext(), gateway.OrderRequest{Amount: req.Amount, Notes: req.Notes})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"orderRef": order.ID,
		"order_id": order.ID,
		"id":       order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"receipt":  order.Receipt,
		"key_id":   h.gateway.PublicKey(),
	})
}

type admissionData struct {
	StudentName string `json:"studentName"`
	Standard    string `json:"standard"`
	Medium      string `json:"medium"`
	Contact     string `json:"contact"`
	Email       string `json:"email"`
	Course      string `json:"course"`
	Amount      int64  `json:"amount"`
}

func (d admissionData) details() StudentDetails {
	return StudentDetails{
		StudentName: d.StudentName,
		Standard:    d.Standard,
		Medium:      d.Medium,
		Contact:     d.Contact,
		Email:       d.Email,
		Course:      d.Course,
		Amount:      d.Amount,
	}
}

// verifyRequest accepts the checkout widget's field names as well as camelCase.
type verifyRequest struct {
	OrderID           string        `json:"orderId"`
	PaymentID         string        `json:"paymentId"`
	Signature         string        `json:"signature"`
	RazorpayOrderID   string        `json:"razorpay_order_id"`
	RazorpayPaymentID string        `json:"razorpay_payment_id"`
	RazorpaySignature string        `json:"razorpay_signature"`
	AdmissionData     admissionData `json:"admissionData"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Verify confirms a checkout callback and records the admission.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	payment, admission, err := h.service.ConfirmPayment(c.UserContext(), ConfirmInput{
		OrderID:   firstNonEmpty(req.OrderID, req.RazorpayOrderID),
		PaymentID: firstNonEmpty(req.PaymentID, req.RazorpayPaymentID),
		Signature: firstNonEmpty(req.Signature, req.RazorpaySignature),
		Admission: req.AdmissionData.details(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":   "payment successful",
		"record":    toPaymentResponse(payment),
		"admission": toAdmissionResponse(admission),
	})
}

type saveRequest struct {
	StudentName string `json:"studentName"`
	Email       string `json:"email"`
	Course      string `json:"course"`
	Amount      int64  `json:"amount"`
	PaymentID   string `json:"paymentId"`
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
}

// Save records a client-reported payment.
func (h *Handler) Save(c *fiber.Ctx) error {
	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	payment, err := h.service.RecordPayment(c.UserContext(), PaymentInput{
		StudentName:       req.StudentName,
		Email:             req.Email,
		CourseRef:         req.Course,
		Amount:            req.Amount,
		ExternalPaymentID: req.PaymentID,
		OrderID:           req.OrderID,
		Status:            req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "payment saved", "payment": toPaymentResponse(payment)})
}

// ListPayments serves the admin payment list.
func (h *Handler) ListPayments(c *fiber.Ctx) error {
	payments, err := h.service.ListPayments(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// ListAdmissions serves the admin admission list.
func (h *Handler) ListAdmissions(c *fiber.Ctx) error {
	admissions, err := h.service.ListAdmissions(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]admissionResponse, 0, len(admissions))
	for _, a := range admissions {
		out = append(out, toAdmissionResponse(a))
	}
	return c.Status(http.StatusOK).JSON(out)
}

type updateAdmissionRequest struct {
	StudentName *string `json:"studentName"`
	Standard    *string `json:"standard"`
	Medium      *string `json:"medium"`
	Contact     *string `json:"contact"`
	Email       *string `json:"email"`
}

// UpdateAdmission edits an admission.
func (h *Handler) UpdateAdmission(c *fiber.Ctx) error {
	var req updateAdmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	a, err := h.service.UpdateAdmission(c.UserContext(), c.Params("id"), AdmissionUpdate(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toAdmissionResponse(a))
}

// DeleteAdmission removes an admission.
func (h *Handler) DeleteAdmission(c *fiber.Ctx) error {
	if err := h.service.DeleteAdmission(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Receipt redirects to the admission's receipt download.
func (h *Handler) Receipt(c *fiber.Ctx) error {
	url, err := h.service.ReceiptURL(c.UserContext(), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return c.Redirect(url, http.StatusFound)
}
