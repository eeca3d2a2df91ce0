package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldErrorsAreValidation(t *testing.T) {
	fe := FieldErrors{}
	assert.NoError(t, fe.OrNil())

	fe.Add("cityName", "City name is required")
	fe.Add("cityName", "ignored")
	fe.Add("cityId", "City ID is required")

	err := fmt.Errorf("create city: %w", fe.OrNil())
	assert.True(t, IsValidation(err))
	assert.Equal(t, "validation failed: cityId: City ID is required; cityName: City name is required", fe.Error())

	got, ok := AsFieldErrors(err)
	assert.True(t, ok)
	assert.Equal(t, "City name is required", got["cityName"])
}

func TestValidationErrorAsFieldErrors(t *testing.T) {
	err := ValidationError{Field: "otp", Msg: "invalid otp"}
	got, ok := AsFieldErrors(err)
	assert.True(t, ok)
	assert.Equal(t, FieldErrors{"otp": "invalid otp"}, got)

	_, ok = AsFieldErrors(ValidationError{Msg: "no field", Err: ErrInsufficientLocations})
	assert.False(t, ok)
}

func TestInsufficientLocationsWrapped(t *testing.T) {
	err := ValidationError{Err: ErrInsufficientLocations}
	assert.True(t, errors.Is(err, ErrInsufficientLocations))
	assert.True(t, IsValidation(err))
	assert.Equal(t, ErrInsufficientLocations.Error(), err.Error())
}

func TestRoleIsAdmin(t *testing.T) {
	assert.True(t, NormalizeRole(" SuperAdmin ").IsAdmin())
	assert.True(t, NormalizeRole("admin").IsAdmin())
	assert.False(t, NormalizeRole("plant").IsAdmin())
}
