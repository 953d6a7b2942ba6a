package models

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9(][0-9 ()-]{6,19}$`)

// ValidPhone reports whether s looks like a phone number
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// RegisterValidations adds the custom tags used by the request models
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
}

// NewValidator returns a validator that understands the request models'
// binding tags
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidations(v); err != nil {
		return nil, err
	}
	return v, nil
}
