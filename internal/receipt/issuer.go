package receipt

import (
	"context"
	"time"

	"github.com/arihant-coaching/coaching_api/internal/idgen"
)

const contentTypePDF = "application/pdf"

// Issuer numbers, renders and stores receipts.
type Issuer struct {
	gen   Generator
	store Store
	seq   *idgen.Sequence
	now   func() time.Time
}

// NewIssuer combines a generator, a store and a receipt number sequence.
func NewIssuer(gen Generator, store Store, seq *idgen.Sequence) *Issuer {
	return &Issuer{gen: gen, store: store, seq: seq, now: time.Now}
}

// Issue renders d and stores it, returning the artifact reference. Number and
// IssuedAt are filled in when empty.
func (i *Issuer) Issue(ctx context.Context, d Data) (string, error) {
	if d.Number == "" {
		d.Number = i.seq.Next()
	}
	if d.IssuedAt.IsZero() {
		d.IssuedAt = i.now()
	}
	body, err := i.gen.Render(d)
	if err != nil {
		return "", err
	}
	return i.store.Put(ctx, "admission_"+d.Number+".pdf", contentTypePDF, body)
}

// URL resolves a stored reference to a download link.
func (i *Issuer) URL(ctx context.Context, ref string) (string, error) {
	return i.store.URL(ctx, ref)
}
