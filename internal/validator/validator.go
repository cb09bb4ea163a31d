package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Case-insensitive: clients send both "eur" and "EUR"; the handler lowercases
// the code once it has passed validation.
var currencyRgx = regexp.MustCompile(`^[A-Za-z]{3}$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("product_type", validateProductType)
	validator.RegisterValidation("currency_code", validateCurrencyCode)

	return validator
}

func validateProductType(fl validator.FieldLevel) bool {
	productType := fl.Field().String()

	return productType == "tool" || productType == "course"
}

// validateCurrencyCode checks for an ISO-4217 shaped code. Whether the payment
// provider actually supports the currency is the provider's call.
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", err.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "product_type":
		return "must be either 'tool' or 'course'"
	case "currency_code":
		return "must be a three-letter ISO 4217 currency code"
	default:
		return "is invalid"
	}
}
