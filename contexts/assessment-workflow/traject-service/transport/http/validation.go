package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func (r ProvisionTrajectRequest) Validate() error {
	return describe(validate.Struct(r))
}

func (r AdvanceStatusRequest) Validate() error {
	return describe(validate.Struct(r))
}

// describe flattens validator output into one message naming each field.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	parts := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		parts = append(parts, fmt.Sprintf("%s failed %s", fieldError.Field(), fieldError.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
