package dto

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var dzPhoneRegex = regexp.MustCompile(`^(?:\+213|00213|0)[567][0-9]{8}$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterValidation("dz_phone", validateAlgerianPhone)
}

func GetValidator() *validator.Validate {
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateAlgerianPhone(fl validator.FieldLevel) bool {
	phone := strings.NewReplacer(" ", "", "-", "", ".", "").Replace(fl.Field().String())
	return dzPhoneRegex.MatchString(phone)
}

type ValidationError struct {
	Field   string `json:"field" example:"phone"`
	Message string `json:"message" example:"phone must be a valid Algerian mobile number"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "min":
				if fieldError.Kind() == reflect.String {
					message = fieldError.Field() + " must be at least " + fieldError.Param() + " characters"
				} else {
					message = fieldError.Field() + " must be at least " + fieldError.Param()
				}
			case "max":
				if fieldError.Kind() == reflect.String {
					message = fieldError.Field() + " must be at most " + fieldError.Param() + " characters"
				} else {
					message = fieldError.Field() + " must be at most " + fieldError.Param()
				}
			case "dz_phone":
				message = fieldError.Field() + " must be a valid Algerian mobile number"
			case "url":
				message = fieldError.Field() + " must be a valid URL"
			case "ip":
				message = fieldError.Field() + " must be a valid IP address"
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

type Validator interface {
	Validate() error
}

func CreateValidationErrorResponse(err error) ValidationErrorResponse {
	return ValidationErrorResponse{
		Code:    400,
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	}
}
