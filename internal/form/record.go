// Package form holds the applicant's form record and persists it, together
// with the captured signature, in a key/value store.
package form

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record is the data collected on the first wizard step
type Record struct {
	SpaceName string `json:"spaceName"`
	Address   string `json:"address"`
	Applicant string `json:"applicant"`
}

// FieldError reports a required field left empty
type FieldError struct {
	Field string
	Label string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s (%s) is required", e.Label, e.Field)
}

// Field labels as shown on the form
const (
	LabelSpaceName = "공간명"
	LabelAddress   = "주소"
	LabelApplicant = "신청자(대표)"
)

// Normalize trims every field and converts it to NFC so that composed and
// decomposed Hangul compare equal.
func (r Record) Normalize() Record {
	clean := func(s string) string {
		return norm.NFC.String(strings.TrimSpace(s))
	}
	return Record{
		SpaceName: clean(r.SpaceName),
		Address:   clean(r.Address),
		Applicant: clean(r.Applicant),
	}
}

// Validate checks that every required field is present. All missing fields
// are reported.
func (r Record) Validate() error {
	var errs []error
	if strings.TrimSpace(r.SpaceName) == "" {
		errs = append(errs, &FieldError{Field: "spaceName", Label: LabelSpaceName})
	}
	if strings.TrimSpace(r.Address) == "" {
		errs = append(errs, &FieldError{Field: "address", Label: LabelAddress})
	}
	if strings.TrimSpace(r.Applicant) == "" {
		errs = append(errs, &FieldError{Field: "applicant", Label: LabelApplicant})
	}
	return errors.Join(errs...)
}
