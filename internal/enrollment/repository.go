package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arihant-coaching/coaching_api/internal/infra"
)

const (
	paymentUniqueConstraint   = "payments_external_payment_id_key"
	admissionUniqueConstraint = "admissions_payment_id_key"
)

// Repository persists payments and admissions.
//
// CreatePayment and RecordEnrollment return the already stored payment together
// with ErrDuplicatePayment when the external payment id exists. CreateAdmission
// does the same with ErrDuplicateAdmission.
//
// Deleted admissions are kept as tombstones: they disappear from reads and
// lists, but FindAdmissionByPayment reports ErrAdmissionWithdrawn for them and
// the payment can never get another admission.
type Repository interface {
	CreatePayment(ctx context.Context, p PaymentRecord) (PaymentRecord, error)
	RecordEnrollment(ctx context.Context, p PaymentRecord, a AdmissionRecord) (PaymentRecord, AdmissionRecord, error)
	// PromoteToSuccess marks a stored payment Success. promoted is false when it
	// already was.
	PromoteToSuccess(ctx context.Context, paymentID string) (p PaymentRecord, promoted bool, err error)
	CreateAdmission(ctx context.Context, a AdmissionRecord) (AdmissionRecord, error)
	FindAdmissionByPayment(ctx context.Context, paymentID string) (AdmissionRecord, error)
	GetAdmission(ctx context.Context, id string) (AdmissionRecord, error)
	SetReceipt(ctx context.Context, admissionID, ref string) error
	ListPayments(ctx context.Context) ([]PaymentRecord, error)
	ListAdmissions(ctx context.Context) ([]AdmissionRecord, error)
	UpdateAdmission(ctx context.Context, a AdmissionRecord) error
	DeleteAdmission(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed enrollment repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	paymentColumns   = `id, student_name, email, course_ref, amount, external_payment_id, order_id, status, created_at`
	admissionColumns = `id, payment_id, student_name, standard, medium, contact, email, COALESCE(receipt_ref, ''), created_at, updated_at`
	insertPayment    = `INSERT INTO payments (id, student_name, email, course_ref, amount, external_payment_id, order_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	insertAdmission = `INSERT INTO admissions (id, payment_id, student_name, standard, medium, contact, email, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

func paymentArgs(p PaymentRecord) []any {
	return []any{uuid.MustParse(p.ID), p.StudentName, p.Email, p.CourseRef, p.Amount, p.ExternalPaymentID, p.OrderID, string(p.Status), p.CreatedAt.UTC()}
}

func admissionArgs(a AdmissionRecord) []any {
	return []any{uuid.MustParse(a.ID), uuid.MustParse(a.PaymentID), a.StudentName, a.Standard, a.Medium, a.Contact, a.Email, a.CreatedAt.UTC(), a.UpdatedAt.UTC()}
}

// CreatePayment inserts a payment; the unique constraint on external_payment_id
// decides concurrent duplicates.
func (r *PostgresRepository) CreatePayment(ctx context.Context, p PaymentRecord) (PaymentRecord, error) {
	_, err := r.db.Exec(ctx, insertPayment, paymentArgs(p)...)
	if infra.IsUniqueViolation(err, paymentUniqueConstraint) {
		existing, findErr := r.findPaymentByExternalID(ctx, p.ExternalPaymentID)
		if findErr != nil {
			return PaymentRecord{}, findErr
		}
		return existing, ErrDuplicatePayment.Wrap(err)
	}
	if err != nil {
		return PaymentRecord{}, err
	}
	return p, nil
}

// RecordEnrollment stores a payment and its admission in one transaction.
func (r *PostgresRepository) RecordEnrollment(ctx context.Context, p PaymentRecord, a AdmissionRecord) (PaymentRecord, AdmissionRecord, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return PaymentRecord{}, AdmissionRecord{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, insertPayment, paymentArgs(p)...); err != nil {
		if infra.IsUniqueViolation(err, paymentUniqueConstraint) {
			_ = tx.Rollback(ctx)
			existing, findErr := r.findPaymentByExternalID(ctx, p.ExternalPaymentID)
			if findErr != nil {
				return PaymentRecord{}, AdmissionRecord{}, findErr
			}
			return existing, AdmissionRecord{}, ErrDuplicatePayment.Wrap(err)
		}
		return PaymentRecord{}, AdmissionRecord{}, fmt.Errorf("insert payment: %w", err)
	}
	if _, err := tx.Exec(ctx, insertAdmission, admissionArgs(a)...); err != nil {
		return PaymentRecord{}, AdmissionRecord{}, fmt.Errorf("insert admission: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return PaymentRecord{}, AdmissionRecord{}, err
	}
	return p, a, nil
}

// CreateAdmission inserts an admission for an existing payment.
func (r *PostgresRepository) CreateAdmission(ctx context.Context, a AdmissionRecord) (AdmissionRecord, error) {
	_, err := r.db.Exec(ctx, insertAdmission, admissionArgs(a)...)
	if infra.IsUniqueViolation(err, admissionUniqueConstraint) {
		existing, findErr := r.FindAdmissionByPayment(ctx, a.PaymentID)
		if findErr != nil {
			return AdmissionRecord{}, findErr
		}
		return existing, ErrDuplicateAdmission.Wrap(err)
	}
	if err != nil {
		return AdmissionRecord{}, err
	}
	return a, nil
}

// PromoteToSuccess flips a Pending or Failed payment to Success in one
// conditional statement, so concurrent callbacks promote it once.
func (r *PostgresRepository) PromoteToSuccess(ctx context.Context, paymentID string) (PaymentRecord, bool, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return PaymentRecord{}, false, ErrNotFound
	}
	p, err := scanPayment(r.db.QueryRow(ctx, `UPDATE payments SET status = $1
        WHERE id = $2 AND status <> $1
        RETURNING `+paymentColumns, string(StatusSuccess), id))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return PaymentRecord{}, false, err
	}
	p, err = scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return PaymentRecord{}, false, ErrNotFound
	}
	return p, false, err
}

func (r *PostgresRepository) findPaymentByExternalID(ctx context.Context, externalID string) (PaymentRecord, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_payment_id = $1`, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return PaymentRecord{}, ErrNotFound
	}
	return p, err
}

// FindAdmissionByPayment returns the admission created for a payment, or
// ErrAdmissionWithdrawn when it was deleted.
func (r *PostgresRepository) FindAdmissionByPayment(ctx context.Context, paymentID string) (AdmissionRecord, error) {
	parsed, err := uuid.Parse(paymentID)
	if err != nil {
		return AdmissionRecord{}, ErrNotFound
	}
	var withdrawn bool
	a, err := scanAdmission(r.db.QueryRow(ctx, `SELECT `+admissionColumns+`, deleted_at IS NOT NULL
        FROM admissions WHERE payment_id = $1`, parsed), &withdrawn)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return AdmissionRecord{}, ErrNotFound
	case err != nil:
		return AdmissionRecord{}, err
	case withdrawn:
		return AdmissionRecord{}, ErrAdmissionWithdrawn
	}
	return a, nil
}

// GetAdmission returns a live admission by id.
func (r *PostgresRepository) GetAdmission(ctx context.Context, id string) (AdmissionRecord, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return AdmissionRecord{}, ErrNotFound
	}
	a, err := scanAdmission(r.db.QueryRow(ctx, `SELECT `+admissionColumns+`
        FROM admissions WHERE id = $1 AND deleted_at IS NULL`, parsed))
	if errors.Is(err, pgx.ErrNoRows) {
		return AdmissionRecord{}, ErrNotFound
	}
	return a, err
}

// SetReceipt records the receipt artifact for an admission.
func (r *PostgresRepository) SetReceipt(ctx context.Context, admissionID, ref string) error {
	id, err := uuid.Parse(admissionID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE admissions SET receipt_ref = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, ref, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPayments returns all payments, newest first.
func (r *PostgresRepository) ListPayments(ctx context.Context) ([]PaymentRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PaymentRecord{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListAdmissions returns all admissions, newest first.
func (r *PostgresRepository) ListAdmissions(ctx context.Context) ([]AdmissionRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT `+admissionColumns+` FROM admissions WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AdmissionRecord{}
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAdmission overwrites the editable admission fields.
func (r *PostgresRepository) UpdateAdmission(ctx context.Context, a AdmissionRecord) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE admissions
        SET student_name = $1, standard = $2, medium = $3, contact = $4, email = $5, updated_at = $6
        WHERE id = $7 AND deleted_at IS NULL`, a.StudentName, a.Standard, a.Medium, a.Contact, a.Email, a.UpdatedAt.UTC(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAdmission tombstones an admission. The payment stays on record.
func (r *PostgresRepository) DeleteAdmission(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE admissions SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, parsed)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPayment(row pgx.Row) (PaymentRecord, error) {
	var (
		id        uuid.UUID
		status    string
		createdAt time.Time
		p         PaymentRecord
	)
	if err := row.Scan(&id, &p.StudentName, &p.Email, &p.CourseRef, &p.Amount, &p.ExternalPaymentID, &p.OrderID, &status, &createdAt); err != nil {
		return PaymentRecord{}, err
	}
	p.ID = id.String()
	p.Status = Status(status)
	p.CreatedAt = createdAt.UTC()
	return p, nil
}

// scanAdmission reads admissionColumns followed by any extra selected columns.
func scanAdmission(row pgx.Row, extra ...any) (AdmissionRecord, error) {
	var (
		id, paymentID        uuid.UUID
		createdAt, updatedAt time.Time
		a                    AdmissionRecord
	)
	dest := append([]any{&id, &paymentID, &a.StudentName, &a.Standard, &a.Medium, &a.Contact, &a.Email, &a.ReceiptRef, &createdAt, &updatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return AdmissionRecord{}, err
	}
	a.ID = id.String()
	a.PaymentID = paymentID.String()
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updatedAt.UTC()
	return a, nil
}
