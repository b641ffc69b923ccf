package enrollment

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu                 sync.RWMutex
	payments           map[string]PaymentRecord // keyed by external payment id
	admissions         map[string]AdmissionRecord
	admissionByPayment map[string]string
	withdrawn          map[string]bool // admission ids deleted by an admin
}

// NewMemoryRepository builds an in-memory enrollment store.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		payments:           make(map[string]PaymentRecord),
		admissions:         make(map[string]AdmissionRecord),
		admissionByPayment: make(map[string]string),
		withdrawn:          make(map[string]bool),
	}
}

func (r *memoryRepository) CreatePayment(_ context.Context, p PaymentRecord) (PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.payments[p.ExternalPaymentID]; ok {
		return existing, ErrDuplicatePayment
	}
	r.payments[p.ExternalPaymentID] = p
	return p, nil
}

func (r *memoryRepository) RecordEnrollment(_ context.Context, p PaymentRecord, a AdmissionRecord) (PaymentRecord, AdmissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.payments[p.ExternalPaymentID]; ok {
		return existing, AdmissionRecord{}, ErrDuplicatePayment
	}
	r.payments[p.ExternalPaymentID] = p
	r.admissions[a.ID] = a
	r.admissionByPayment[a.PaymentID] = a.ID
	return p, a, nil
}

func (r *memoryRepository) PromoteToSuccess(_ context.Context, paymentID string) (PaymentRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, p := range r.payments {
		if p.ID != paymentID {
			continue
		}
		if p.Status == StatusSuccess {
			return p, false, nil
		}
		p.Status = StatusSuccess
		r.payments[key] = p
		return p, true, nil
	}
	return PaymentRecord{}, false, ErrNotFound
}

func (r *memoryRepository) CreateAdmission(_ context.Context, a AdmissionRecord) (AdmissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.admissionByPayment[a.PaymentID]; ok {
		return r.admissions[id], ErrDuplicateAdmission
	}
	r.admissions[a.ID] = a
	r.admissionByPayment[a.PaymentID] = a.ID
	return a, nil
}

func (r *memoryRepository) FindAdmissionByPayment(_ context.Context, paymentID string) (AdmissionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.admissionByPayment[paymentID]
	if !ok {
		return AdmissionRecord{}, ErrNotFound
	}
	if r.withdrawn[id] {
		return AdmissionRecord{}, ErrAdmissionWithdrawn
	}
	return r.admissions[id], nil
}

func (r *memoryRepository) GetAdmission(_ context.Context, id string) (AdmissionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.admissions[id]
	if !ok || r.withdrawn[id] {
		return AdmissionRecord{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryRepository) SetReceipt(_ context.Context, admissionID, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admissions[admissionID]
	if !ok || r.withdrawn[admissionID] {
		return ErrNotFound
	}
	a.ReceiptRef = ref
	a.UpdatedAt = time.Now().UTC()
	r.admissions[admissionID] = a
	return nil
}

func (r *memoryRepository) ListPayments(_ context.Context) ([]PaymentRecord, error) {
	r.mu.RLock()
	out := make([]PaymentRecord, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) ListAdmissions(_ context.Context) ([]AdmissionRecord, error) {
	r.mu.RLock()
	out := make([]AdmissionRecord, 0, len(r.admissions))
	for id, a := range r.admissions {
		if !r.withdrawn[id] {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) UpdateAdmission(_ context.Context, a AdmissionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admissions[a.ID]; !ok || r.withdrawn[a.ID] {
		return ErrNotFound
	}
	r.admissions[a.ID] = a
	return nil
}

func (r *memoryRepository) DeleteAdmission(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admissions[id]; !ok || r.withdrawn[id] {
		return ErrNotFound
	}
	r.withdrawn[id] = true
	return nil
}
