package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	registerCustomValidations()
}

func registerCustomValidations() {
	// Allocation strategy validation
	validate.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
		strategy := fl.Field().String()
		validStrategies := []string{"equal", "proportional", "priority", ""}
		for _, s := range validStrategies {
			if strategy == s {
				return true
			}
		}
		return false
	})

	// NUBAN account number: exactly 10 digits
	validate.RegisterValidation("nuban", func(fl validator.FieldLevel) bool {
		account := fl.Field().String()
		if len(account) != 10 {
			return false
		}
		for _, c := range account {
			if c < '0' || c > '9' {
				return false
			}
		}
		return true
	})

	// Bank code: 3-6 digits as issued by the provider's bank list
	validate.RegisterValidation("bankcode", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if len(code) < 3 || len(code) > 6 {
			return false
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				return false
			}
		}
		return true
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "strategy":
			errors[field] = "Invalid strategy. Must be: equal, proportional, or priority"
		case "nuban":
			errors[field] = "Account number must be exactly 10 digits"
		case "bankcode":
			errors[field] = "Invalid bank code"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
