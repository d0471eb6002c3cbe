package form

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/a3tai/sign-form/internal/signature"
	"github.com/a3tai/sign-form/internal/store"
)

// Repository persists the form record and the signature data URL
type Repository struct {
	store store.Store
}

// NewRepository creates a Repository over s
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// SaveRecord normalises, validates and stores r under the formData key
func (repo *Repository) SaveRecord(ctx context.Context, r Record) (Record, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return Record{}, err
	}

	b, err := json.Marshal(r)
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal form record: %w", err)
	}
	if err := repo.store.Set(ctx, store.KeyFormData, string(b)); err != nil {
		return Record{}, fmt.Errorf("saving form record: %w", err)
	}
	return r, nil
}

// LoadRecord returns the stored record; ok is false when none was saved
func (repo *Repository) LoadRecord(ctx context.Context) (Record, bool, error) {
	raw, ok, err := repo.store.Get(ctx, store.KeyFormData)
	if err != nil {
		return Record{}, false, fmt.Errorf("loading form record: %w", err)
	}
	if !ok {
		return Record{}, false, nil
	}

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Record{}, false, fmt.Errorf("failed to unmarshal form record: %w", err)
	}
	return r, true, nil
}

// SaveSignature stores a signature data URL after checking it decodes to a
// supported raster image.
func (repo *Repository) SaveSignature(ctx context.Context, dataURL string) (*signature.Image, error) {
	img, err := signature.Decode(dataURL)
	if err != nil {
		return nil, err
	}
	if err := repo.store.Set(ctx, store.KeySignature, img.DataURL()); err != nil {
		return nil, fmt.Errorf("saving signature: %w", err)
	}
	return img, nil
}

// LoadSignature returns the stored signature data URL
func (repo *Repository) LoadSignature(ctx context.Context) (string, bool, error) {
	v, ok, err := repo.store.Get(ctx, store.KeySignature)
	if err != nil {
		return "", false, fmt.Errorf("loading signature: %w", err)
	}
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// ClearSignature removes the stored signature
func (repo *Repository) ClearSignature(ctx context.Context) error {
	if err := repo.store.Remove(ctx, store.KeySignature); err != nil {
		return fmt.Errorf("clearing signature: %w", err)
	}
	return nil
}
