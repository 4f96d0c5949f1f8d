package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

// Same pattern the web client applies before checkout.
var contactEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Checkout and ledger references: Paystack allows alphanumerics plus -.=_
var referenceRegex = regexp.MustCompile(`^[A-Za-z0-9_.=\-]{1,100}$`)

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

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return contactEmailRegex.MatchString(fl.Field().String())
	})

	validate.RegisterValidation("reference", func(fl validator.FieldLevel) bool {
		return referenceRegex.MatchString(fl.Field().String())
	})
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
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email", "contact_email":
			errors[field] = "Invalid email format"
		case "uuid", "uuid4":
			errors[field] = "Must be a valid UUID"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt", "gte", "min":
			errors[field] = "Value must be at least " + minimum(err.Tag(), err.Param())
		case "oneof":
			errors[field] = "Must be one of: " + strings.ReplaceAll(err.Param(), " ", ", ")
		case "reference":
			errors[field] = "Invalid transaction reference"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

func minimum(tag, param string) string {
	if tag == "gt" {
		return "greater than " + param
	}
	return param
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
