package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidName indicates the passenger name contains unsupported characters
	ErrInvalidName = errors.New("passenger name can only contain letters, spaces, hyphens and apostrophes")

	// ErrNameTooLong indicates the passenger name exceeds the stored length
	ErrNameTooLong = errors.New("passenger name must be at most 100 characters")

	// ErrInvalidDocument indicates the document number is not 6-20 letters or digits
	ErrInvalidDocument = errors.New("document number must be 6 to 20 letters or digits")

	// ErrInvalidLoyaltyNumber indicates the loyalty number is not 8-16 digits
	ErrInvalidLoyaltyNumber = errors.New("loyalty number must be 8 to 16 digits")
)

const maxNameLength = 100

var (
	nameRegex     = regexp.MustCompile(`^[\p{L}][\p{L} '\-]*$`)
	documentRegex = regexp.MustCompile(`^[A-Z0-9]{6,20}$`)
	loyaltyRegex  = regexp.MustCompile(`^\d{8,16}$`)
	separators    = strings.NewReplacer(" ", "", "-", "", ".", "", "/", "")
)

// PassengerValidator validates the optional traveller fields captured at booking.
// Empty values are accepted; every Validate method returns the sanitized form.
type PassengerValidator struct{}

// NewPassengerValidator creates a new passenger validator instance
func NewPassengerValidator() *PassengerValidator {
	return &PassengerValidator{}
}

// ValidateName trims the name and collapses inner whitespace
func (v *PassengerValidator) ValidateName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", nil
	}
	if len([]rune(name)) > maxNameLength {
		return "", ErrNameTooLong
	}
	if !nameRegex.MatchString(name) {
		return "", ErrInvalidName
	}
	return name, nil
}

// ValidateDocument accepts passport/ID numbers written with spaces or dashes.
// Returns the number upper-cased with separators removed.
func (v *PassengerValidator) ValidateDocument(doc string) (string, error) {
	doc = strings.ToUpper(v.Sanitize(doc))
	if doc == "" {
		return "", nil
	}
	if !documentRegex.MatchString(doc) {
		return "", ErrInvalidDocument
	}
	return doc, nil
}

// ValidateLoyaltyNumber accepts a digits-only card number, separators allowed
func (v *PassengerValidator) ValidateLoyaltyNumber(number string) (string, error) {
	number = v.Sanitize(number)
	if number == "" {
		return "", nil
	}
	if !loyaltyRegex.MatchString(number) {
		return "", ErrInvalidLoyaltyNumber
	}
	return number, nil
}

// Sanitize removes common separators
func (v *PassengerValidator) Sanitize(s string) string {
	return separators.Replace(strings.TrimSpace(s))
}

// FieldError names the passenger field that failed validation
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Fields validates name, document and loyalty number together and returns
// their sanitized forms in the same order.
func (v *PassengerValidator) Fields(name, doc, loyalty string) (string, string, string, error) {
	n, err := v.ValidateName(name)
	if err != nil {
		return "", "", "", &FieldError{Field: "full_name", Err: err}
	}
	d, err := v.ValidateDocument(doc)
	if err != nil {
		return "", "", "", &FieldError{Field: "document_number", Err: err}
	}
	l, err := v.ValidateLoyaltyNumber(loyalty)
	if err != nil {
		return "", "", "", &FieldError{Field: "loyalty_number", Err: err}
	}
	return n, d, l, nil
}
