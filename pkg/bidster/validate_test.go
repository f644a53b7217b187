package bidster

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		fields map[string]string
	}{
		{
			name:  "valid registration",
			input: Registration{Username: "ann", Email: "ann@example.com", Password: "password1", ConfirmPassword: "password1"},
		},
		{
			name:  "registration",
			input: Registration{Username: strings.Repeat("a", 21), Email: "nope", Password: "short", ConfirmPassword: "other"},
			fields: map[string]string{
				"username":        "must be at most 20 characters",
				"email":           "must be a valid email address",
				"password":        "must be at least 8 characters",
				"confirmPassword": "the passwords do not match",
			},
		},
		{
			name:   "rating out of range",
			input:  ratingInput{Rating: 6},
			fields: map[string]string{"rating": "must be at most 5"},
		},
		{
			name:   "rating zero",
			input:  ratingInput{Rating: 0},
			fields: map[string]string{"rating": "must be at least 1"},
		},
		{
			name:   "long comment",
			input:  commentInput{Comment: strings.Repeat("x", 257)},
			fields: map[string]string{"comment": "must be at most 256 characters"},
		},
		{
			name:  "longitude in range",
			input: ListingInput{Title: "t", Description: "d", StartingBid: 1, Category: 1, Longitude: new(float64)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInput(tt.input)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Len(t, verr.Fields, len(tt.fields))
			for field, msg := range tt.fields {
				assert.Equal(t, msg, verr.Field(field), field)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{{Field: "title", Message: "is required"}, {Field: "bid", Message: "must be greater than 0"}}}
	assert.Equal(t, "invalid input: title: is required; bid: must be greater than 0", err.Error())
	assert.True(t, IsValidation(err))
	assert.False(t, IsValidation(errors.New("other")))
}
