// Package validation provides enhanced validation with go-playground/validator integration
package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Enhanced validator instance with custom validations
var (
	// Validate is the main validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validation functions
	Validate.RegisterValidation("node_id", validateNodeID)
	Validate.RegisterValidation("strength", validateStrength)
	Validate.RegisterValidation("observation_kind", validateObservationKind)
	Validate.RegisterValidation("topology", validateTopology)
	Validate.RegisterValidation("uuid4", validateUUID4)

	// Register tag name function to use JSON tags for field names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// ValidateWithPlayground validates using go-playground/validator
func ValidateWithPlayground(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors converts validator errors to our custom format
func formatValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Value:   fieldError.Value(),
				Message: getErrorMessage(fieldError),
			})
		}
	}

	return errors
}

// getErrorMessage returns a human-readable error message
func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("minimum value/length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value/length is %s", fe.Param())
	case "len":
		return fmt.Sprintf("length must be exactly %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "node_id":
		return "must be a valid node identifier (alphanumeric, underscore, hyphen)"
	case "strength":
		return "must be a strength within [0, 1]"
	case "observation_kind":
		return "must be a valid observation kind (entangled, disentangled, propagated, propagation_error)"
	case "topology":
		return "must be a valid topology (chain, ring, star, mesh)"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("validation failed: %s", fe.Tag())
	}
}

// Custom validation functions for entanglement-specific rules

// validateNodeID validates node identifier format
func validateNodeID(fl validator.FieldLevel) bool {
	nodeID := fl.Field().String()
	if nodeID == "" {
		return false
	}

	// Node ID must be alphanumeric with underscores and hyphens
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_-]+$`, nodeID)
	return matched && len(nodeID) >= 1 && len(nodeID) <= 100
}

// validateStrength validates that a strength sits within [0, 1]
func validateStrength(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		v := field.Float()
		return v >= 0 && v <= 1
	default:
		return false
	}
}

// validateObservationKind validates observation kind values
func validateObservationKind(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	validKinds := []string{"entangled", "disentangled", "propagated", "propagation_error"}

	for _, validKind := range validKinds {
		if kind == validKind {
			return true
		}
	}
	return false
}

// validateTopology validates prebuilt topology kinds
func validateTopology(fl validator.FieldLevel) bool {
	topology := fl.Field().String()
	validTopologies := []string{"chain", "ring", "star", "mesh"}

	for _, validTopology := range validTopologies {
		if topology == validTopology {
			return true
		}
	}
	return false
}

// validateUUID4 validates UUID v4 format
func validateUUID4(fl validator.FieldLevel) bool {
	uuid := fl.Field().String()
	if uuid == "" {
		return false
	}

	// UUID v4 regex pattern
	matched, _ := regexp.MatchString(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`, uuid)
	return matched
}

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	StrictMode  bool `json:"strict_mode"`
	SkipMissing bool `json:"skip_missing"`
	MaxErrors   int  `json:"max_errors"`
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		StrictMode:  true,
		SkipMissing: false,
		MaxErrors:   10,
	}
}

// ValidateWithConfig validates with specific configuration
func ValidateWithConfig(s interface{}, config *ValidationConfig) error {
	if config == nil {
		config = DefaultValidationConfig()
	}

	err := ValidateWithPlayground(s)
	if err != nil {
		if validationErrors, ok := err.(ValidationErrors); ok {
			if config.MaxErrors > 0 && len(validationErrors) > config.MaxErrors {
				return ValidationErrors(validationErrors[:config.MaxErrors])
			}
		}
		return err
	}

	return nil
}

// MarshalValidationErrors marshals validation errors to JSON
func MarshalValidationErrors(errors ValidationErrors) ([]byte, error) {
	type ErrorResponse struct {
		Errors []ValidationError `json:"errors"`
		Count  int               `json:"count"`
	}

	response := ErrorResponse{
		Errors: errors,
		Count:  len(errors),
	}

	return json.Marshal(response)
}

// UnmarshalValidationErrors unmarshals validation errors from JSON
func UnmarshalValidationErrors(data []byte) (ValidationErrors, error) {
	type ErrorResponse struct {
		Errors []ValidationError `json:"errors"`
		Count  int               `json:"count"`
	}

	var response ErrorResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}

	return ValidationErrors(response.Errors), nil
}
