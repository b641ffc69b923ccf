package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
	"github.com/arihant-coaching/coaching_api/internal/notification"
	"github.com/arihant-coaching/coaching_api/internal/obs"
	"github.com/arihant-coaching/coaching_api/internal/receipt"
)

// SignatureVerifier checks a checkout callback signature.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}

// ReceiptIssuer renders and stores an admission receipt.
type ReceiptIssuer interface {
	Issue(ctx context.Context, d receipt.Data) (string, error)
	URL(ctx context.Context, ref string) (string, error)
}

// Service records payments and the admissions they pay for.
type Service struct {
	repo     Repository
	verifier SignatureVerifier
	receipts ReceiptIssuer
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the enrollment recorder. receipts and notifier may be nil.
func NewService(repo Repository, verifier SignatureVerifier, receipts ReceiptIssuer, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, verifier: verifier, receipts: receipts, notifier: notifier, logger: logger, now: time.Now}
}

// RecordPayment validates and stores a payment. A repeated external payment id
// yields the stored record with ErrDuplicatePayment.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (PaymentRecord, error) {
	p, err := s.newPayment(in)
	if err != nil {
		return PaymentRecord{}, err
	}
	stored, err := s.repo.CreatePayment(ctx, p)
	if err != nil {
		return stored, err
	}
	if stored.Status == StatusSuccess {
		s.announce(ctx, stored, AdmissionRecord{})
	}
	return stored, nil
}

// FinalizeAdmission creates the admission for a recorded payment and attaches
// a receipt when one can be produced.
func (s *Service) FinalizeAdmission(ctx context.Context, payment PaymentRecord, details StudentDetails) (AdmissionRecord, error) {
	a := s.newAdmission(payment, details)
	stored, err := s.repo.CreateAdmission(ctx, a)
	if err != nil {
		return stored, err
	}
	return s.attachReceipt(ctx, payment, stored, details), nil
}

// ConfirmPayment handles a checkout callback: the signature must verify, then
// the payment and its admission are stored together. Replays of an already
// stored payment id return the stored records.
func (s *Service) ConfirmPayment(ctx context.Context, in ConfirmInput) (PaymentRecord, AdmissionRecord, error) {
	ctx, span := obs.Tracer().Start(ctx, "enrollment.ConfirmPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.order_id", in.OrderID), attribute.String("payment.id", in.PaymentID))

	if !s.verifier.Verify(in.OrderID, in.PaymentID, in.Signature) {
		span.SetStatus(codes.Error, "signature mismatch")
		return PaymentRecord{}, AdmissionRecord{}, ErrSignatureMismatch
	}

	d := in.Admission
	p, err := s.newPayment(PaymentInput{
		StudentName:       d.StudentName,
		Email:             d.Email,
		CourseRef:         d.Course,
		Amount:            d.Amount,
		ExternalPaymentID: in.PaymentID,
		OrderID:           in.OrderID,
		Status:            string(StatusSuccess),
	})
	if err != nil {
		return PaymentRecord{}, AdmissionRecord{}, err
	}

	payment, admission, err := s.repo.RecordEnrollment(ctx, p, s.newAdmission(p, d))
	switch {
	case errors.Is(err, ErrDuplicatePayment):
		span.AddEvent("replayed callback")
		return s.resume(ctx, payment, d)
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.logger.Error("verified payment not recorded", "payment_id", in.PaymentID, "order_id", in.OrderID, "error", err)
		return PaymentRecord{}, AdmissionRecord{}, ErrPaymentNotRecorded.Wrap(err)
	}

	admission = s.attachReceipt(ctx, payment, admission, d)
	s.announce(ctx, payment, admission)
	return payment, admission, nil
}

// resume completes a confirmation whose payment is already stored. The
// verified signature settles the payment, so an earlier Pending or Failed save
// is promoted to Success before any admission is attached. An admission is
// created only if the payment never had one; a withdrawn admission stays gone.
func (s *Service) resume(ctx context.Context, payment PaymentRecord, d StudentDetails) (PaymentRecord, AdmissionRecord, error) {
	promoted := false
	if payment.Status != StatusSuccess {
		var err error
		payment, promoted, err = s.repo.PromoteToSuccess(ctx, payment.ID)
		if err != nil {
			return PaymentRecord{}, AdmissionRecord{}, ErrPaymentNotRecorded.Wrap(err)
		}
		if promoted {
			s.logger.Info("payment promoted by verified callback", "payment_id", payment.ExternalPaymentID)
		}
	}

	admission, err := s.repo.FindAdmissionByPayment(ctx, payment.ID)
	switch {
	case err == nil:
		return payment, admission, nil
	case errors.Is(err, ErrAdmissionWithdrawn):
		return payment, AdmissionRecord{}, err
	case !errors.Is(err, ErrNotFound):
		return PaymentRecord{}, AdmissionRecord{}, ErrPaymentNotRecorded.Wrap(err)
	}

	admission, err = s.FinalizeAdmission(ctx, payment, d)
	if err != nil && !errors.Is(err, ErrDuplicateAdmission) {
		return PaymentRecord{}, AdmissionRecord{}, ErrPaymentNotRecorded.Wrap(err)
	}
	if promoted {
		s.announce(ctx, payment, admission)
	}
	return payment, admission, nil
}

func (s *Service) attachReceipt(ctx context.Context, payment PaymentRecord, a AdmissionRecord, d StudentDetails) AdmissionRecord {
	if s.receipts == nil {
		return a
	}
	ref, err := s.receipts.Issue(ctx, receipt.Data{
		StudentName:   a.StudentName,
		Standard:      a.Standard,
		Medium:        a.Medium,
		Contact:       a.Contact,
		Email:         a.Email,
		Course:        d.Course,
		Amount:        payment.Amount,
		PaymentID:     payment.ExternalPaymentID,
		PaymentStatus: string(payment.Status),
		IssuedAt:      s.now(),
	})
	if err != nil {
		s.logger.Warn("receipt generation failed", "admission_id", a.ID, "error", err)
		return a
	}
	if err := s.repo.SetReceipt(ctx, a.ID, ref); err != nil {
		s.logger.Warn("receipt reference not saved", "admission_id", a.ID, "error", err)
		return a
	}
	a.ReceiptRef = ref
	return a
}

func (s *Service) announce(ctx context.Context, p PaymentRecord, a AdmissionRecord) {
	if s.notifier == nil || p.Email == "" {
		return
	}
	msg := notification.Message{
		Kind:        notification.KindPaymentSuccess,
		Destination: p.Email,
		Body:        fmt.Sprintf("Payment %s of INR %d received for %s", p.ExternalPaymentID, p.Amount, p.StudentName),
		Data: map[string]string{
			"payment_id": p.ExternalPaymentID,
			"order_id":   p.OrderID,
		},
	}
	if a.ID != "" {
		msg.Data["admission_id"] = a.ID
		msg.Data["receipt_ref"] = a.ReceiptRef
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("payment notification failed", "payment_id", p.ExternalPaymentID, "error", err)
	}
}

// ListPayments returns all payments for the admin console.
func (s *Service) ListPayments(ctx context.Context) ([]PaymentRecord, error) {
	return s.repo.ListPayments(ctx)
}

// ListAdmissions returns all admissions for the admin console.
func (s *Service) ListAdmissions(ctx context.Context) ([]AdmissionRecord, error) {
	return s.repo.ListAdmissions(ctx)
}

// UpdateAdmission applies an admin edit.
func (s *Service) UpdateAdmission(ctx context.Context, id string, u AdmissionUpdate) (AdmissionRecord, error) {
	a, err := s.repo.GetAdmission(ctx, id)
	if err != nil {
		return AdmissionRecord{}, err
	}
	u.apply(&a)
	if a.StudentName == "" {
		return AdmissionRecord{}, apperr.Validation("student name is required")
	}
	a.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateAdmission(ctx, a); err != nil {
		return AdmissionRecord{}, err
	}
	return a, nil
}

// DeleteAdmission withdraws an admission; its payment remains and a replayed
// callback will not recreate it.
func (s *Service) DeleteAdmission(ctx context.Context, id string) error {
	return s.repo.DeleteAdmission(ctx, id)
}

// ReceiptURL resolves the download link for an admission's receipt.
func (s *Service) ReceiptURL(ctx context.Context, admissionID string) (string, error) {
	a, err := s.repo.GetAdmission(ctx, admissionID)
	if err != nil {
		return "", err
	}
	if a.ReceiptRef == "" || s.receipts == nil {
		return "", ErrNotFound.WithMessage("no receipt for this admission")
	}
	return s.receipts.URL(ctx, a.ReceiptRef)
}

func (s *Service) newPayment(in PaymentInput) (PaymentRecord, error) {
	status, err := ParseStatus(in.Status)
	if err != nil {
		return PaymentRecord{}, err
	}
	externalID := strings.TrimSpace(in.ExternalPaymentID)
	if externalID == "" {
		return PaymentRecord{}, apperr.Validation("payment id is required")
	}
	if in.Amount < 0 {
		return PaymentRecord{}, apperr.Validation("amount cannot be negative")
	}
	return PaymentRecord{
		ID:                uuid.NewString(),
		StudentName:       strings.TrimSpace(in.StudentName),
		Email:             strings.ToLower(strings.TrimSpace(in.Email)),
		CourseRef:         strings.TrimSpace(in.CourseRef),
		Amount:            in.Amount,
		ExternalPaymentID: externalID,
		OrderID:           strings.TrimSpace(in.OrderID),
		Status:            status,
		CreatedAt:         s.now().UTC(),
	}, nil
}

func (s *Service) newAdmission(p PaymentRecord, d StudentDetails) AdmissionRecord {
	now := s.now().UTC()
	name := strings.TrimSpace(d.StudentName)
	if name == "" {
		name = p.StudentName
	}
	email := strings.ToLower(strings.TrimSpace(d.Email))
	if email == "" {
		email = p.Email
	}
	return AdmissionRecord{
		ID:          uuid.NewString(),
		PaymentID:   p.ID,
		StudentName: name,
		Standard:    strings.TrimSpace(d.Standard),
		Medium:      strings.TrimSpace(d.Medium),
		Contact:     strings.TrimSpace(d.Contact),
		Email:       email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
