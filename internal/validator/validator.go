package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the attendance rules registered
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so errors line up with request payloads
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	business := &BusinessValidator{validate: validate}
	business.registerBusinessRules()

	return &Validator{
		validate: validate,
		business: business,
	}
}

// ValidateStruct returns ValidationErrors, or nil when s is valid
func (v *Validator) ValidateStruct(s interface{}) error {
	if errs := v.business.Validate(s); len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// Engine exposes the underlying validator for callers that register their own tags
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}
