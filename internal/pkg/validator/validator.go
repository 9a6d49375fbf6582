package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

var (
	enumMu       sync.RWMutex
	enumMessages = map[string]string{}
)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages, falling back to form tags for multipart DTOs
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// RegisterEnum registers a validation tag backed by a static membership check.
// The message is reported when a field fails the check.
func RegisterEnum(tag string, valid func(string) bool, message string) {
	enumMu.Lock()
	defer enumMu.Unlock()

	validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return valid(fl.Field().String())
	})
	enumMessages[tag] = message
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		errors[err.Field()] = message(err)
	}

	return errors
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "min":
		return "Value is too short (min: " + err.Param() + ")"
	case "max":
		return "Value is too long (max: " + err.Param() + ")"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be at least " + err.Param()
	case "lte":
		return "Value must be at most " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	}

	enumMu.RLock()
	msg, ok := enumMessages[err.Tag()]
	enumMu.RUnlock()
	if ok {
		return msg
	}
	return "Invalid value"
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
