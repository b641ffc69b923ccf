package enrollment

import (
	"strings"
	"time"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

// Status is the canonical payment state.
type Status string

const (
	StatusPending Status = "Pending"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// ParseStatus maps the spellings clients send onto the canonical states.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pending", "created":
		return StatusPending, nil
	case "success", "paid", "captured":
		return StatusSuccess, nil
	case "failed":
		return StatusFailed, nil
	default:
		return "", apperr.Validation("unknown payment status " + s)
	}
}

// PaymentRecord is a persisted payment outcome. Amount is in rupees.
type PaymentRecord struct {
	ID                string
	StudentName       string
	Email             string
	CourseRef         string
	Amount            int64
	ExternalPaymentID string
	OrderID           string
	Status            Status
	CreatedAt         time.Time
}

// AdmissionRecord is the enrollment created from a successful payment.
type AdmissionRecord struct {
	ID          string
	PaymentID   string
	StudentName string
	Standard    string
	Medium      string
	Contact     string
	Email       string
	ReceiptRef  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentInput is an unvalidated payment to record.
type PaymentInput struct {
	StudentName       string
	Email             string
	CourseRef         string
	Amount            int64
	ExternalPaymentID string
	OrderID           string
	Status            string
}

// StudentDetails is the admission form submitted with a checkout.
type StudentDetails struct {
	StudentName string
	Standard    string
	Medium      string
	Contact     string
	Email       string
	Course      string
	Amount      int64
}

// ConfirmInput is a checkout callback from the client.
type ConfirmInput struct {
	OrderID   string
	PaymentID string
	Signature string
	Admission StudentDetails
}

// AdmissionUpdate carries the admin-editable fields; nil means unchanged.
type AdmissionUpdate struct {
	StudentName *string
	Standard    *string
	Medium      *string
	Contact     *string
	Email       *string
}

func (u AdmissionUpdate) apply(a *AdmissionRecord) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.StudentName, u.StudentName)
	set(&a.Standard, u.Standard)
	set(&a.Medium, u.Medium)
	set(&a.Contact, u.Contact)
	set(&a.Email, u.Email)
}
