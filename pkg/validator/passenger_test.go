package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPassengerValidator(t *testing.T) {
	validator := NewPassengerValidator()
	assert.NotNil(t, validator)
}

func TestValidateName(t *testing.T) {
	validator := NewPassengerValidator()

	tests := []struct {
		input       string
		expected    string
		expectedErr error
		name        string
	}{
		{"Ivan Petrov", "Ivan Petrov", nil, "Plain name"},
		{"  Anna   Maria  Smith ", "Anna Maria Smith", nil, "Extra whitespace"},
		{"Иван Петров", "Иван Петров", nil, "Cyrillic"},
		{"Jean-Luc O'Neil", "Jean-Luc O'Neil", nil, "Hyphen and apostrophe"},
		{"", "", nil, "Empty is allowed"},
		{"R2D2", "", ErrInvalidName, "Digits"},
		{"-Anna", "", ErrInvalidName, "Leading hyphen"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := validator.ValidateName(tc.input)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}

	long := make([]rune, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err := validator.ValidateName(string(long))
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestValidateDocument(t *testing.T) {
	validator := NewPassengerValidator()

	tests := []struct {
		input       string
		expected    string
		expectedErr error
		name        string
	}{
		{"MP1234567", "MP1234567", nil, "Passport"},
		{"mp 123-4567", "MP1234567", nil, "Lowercase with separators"},
		{"", "", nil, "Empty is allowed"},
		{"12345", "", ErrInvalidDocument, "Too short"},
		{"AB#123456", "", ErrInvalidDocument, "Symbols"},
		{"A123456789012345678901", "", ErrInvalidDocument, "Too long"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := validator.ValidateDocument(tc.input)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestValidateLoyaltyNumber(t *testing.T) {
	validator := NewPassengerValidator()

	got, err := validator.ValidateLoyaltyNumber("1234 5678 9012")
	require.NoError(t, err)
	assert.Equal(t, "123456789012", got)

	got, err = validator.ValidateLoyaltyNumber("  ")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = validator.ValidateLoyaltyNumber("1234567")
	assert.ErrorIs(t, err, ErrInvalidLoyaltyNumber)

	_, err = validator.ValidateLoyaltyNumber("12345678A")
	assert.ErrorIs(t, err, ErrInvalidLoyaltyNumber)
}

func TestFields(t *testing.T) {
	validator := NewPassengerValidator()

	n, d, l, err := validator.Fields(" Olga  Ivanova", "ab-123456", "0000-1111")
	require.NoError(t, err)
	assert.Equal(t, "Olga Ivanova", n)
	assert.Equal(t, "AB123456", d)
	assert.Equal(t, "00001111", l)

	_, _, _, err = validator.Fields("Olga", "x", "")
	require.Error(t, err)

	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "document_number", fieldErr.Field)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.Equal(t, "document_number: "+ErrInvalidDocument.Error(), err.Error())
}
