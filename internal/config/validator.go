package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var clusterIDPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	validate := newValidator()

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("configuration validation error: %w", err)
	}

	var validationErrorMessages []string
	for _, e := range errs {
		fieldName := strings.TrimPrefix(e.Namespace(), "GlobalConfig.")
		msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", fieldName, e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if value := e.Value(); value != nil && value != "" {
			msg += fmt.Sprintf(", actual: '%v'", derefValue(value))
		}
		validationErrorMessages = append(validationErrorMessages, msg)
	}
	return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(validationErrorMessages, "\n  "))
}

func newValidator() *validator.Validate {
	validate := validator.New()

	// A limit fraction, [0.0, 1.0]. NaN fails.
	_ = validate.RegisterValidation("fraction", func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		return v >= 0.0 && v <= 1.0
	})

	_ = validate.RegisterValidation("clusterid", func(fl validator.FieldLevel) bool {
		id := fl.Field().String()
		return id == "" || clusterIDPattern.MatchString(id) // Allow empty, required handles presence
	})

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		level := strings.ToLower(fl.Field().String())
		switch level {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		format := strings.ToLower(fl.Field().String())
		switch format {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	return validate
}

func derefValue(value interface{}) interface{} {
	if p, ok := value.(*float64); ok && p != nil {
		return *p
	}
	return value
}
