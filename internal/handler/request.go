package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/reviewdb/internal/apperror"
)

// validate is shared by all handlers. Validator instances cache struct
// metadata, so one per process is the intended usage.
var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON parses the request body into dst and runs the struct's
// validate tags. Both failure modes come back as validation errors, so
// handlers forward them straight to writeError.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("", "request body is not valid JSON")
	}
	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("handler: validating request: %w", err)
		}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperror.ValidationFailed(strings.ToLower(fe.Field()), validationMessage(fe))
		}
		return apperror.ValidationFailed("", "request failed validation")
	}
	return nil
}

// validationMessage turns a validator tag failure into a message a human
// can act on.
func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
