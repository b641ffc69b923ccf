package enrollment

import (
	"net/http"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

var (
	// ErrDuplicatePayment means the external payment id is already recorded.
	ErrDuplicatePayment = apperr.New(apperr.KindConflict, "duplicate_payment", "payment already recorded")
	// ErrDuplicateAdmission means the payment already has an admission.
	ErrDuplicateAdmission = apperr.New(apperr.KindConflict, "duplicate_admission", "admission already recorded for this payment")
	// ErrSignatureMismatch means the checkout callback signature did not verify.
	ErrSignatureMismatch = apperr.New(apperr.KindValidation, "signature_mismatch", "payment verification failed")
	// ErrPaymentNotRecorded means the payment verified but could not be persisted.
	ErrPaymentNotRecorded = apperr.New(apperr.KindInternal, "payment_not_recorded", "payment confirmed but not recorded").WithStatus(http.StatusInternalServerError)
	// ErrAdmissionWithdrawn means an admin deleted the payment's admission; a
	// replayed callback must not bring it back.
	ErrAdmissionWithdrawn = apperr.New(apperr.KindConflict, "admission_withdrawn", "the admission for this payment was withdrawn")
	// ErrNotFound means no such payment or admission.
	ErrNotFound = apperr.New(apperr.KindNotFound, "record_not_found", "record not found")
)
