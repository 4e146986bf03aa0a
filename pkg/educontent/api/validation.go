package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tendant/edu-content/pkg/educontent"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	vocabulary := map[string]func(string) bool{
		"agegroup":   educontent.IsKnownAgeGroup,
		"classlevel": educontent.IsKnownClassLevel,
		"category":   educontent.IsKnownCategory,
		"area":       educontent.IsKnownArea,
	}
	for tag, known := range vocabulary {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return known(strings.TrimSpace(fl.Field().String()))
		})
		if err != nil {
			panic(err)
		}
	}
	return v
}

// fieldErrors reports every failed field of a request body. It unwraps to
// the first failure so callers can still match educontent.ErrValidation.
type fieldErrors struct {
	first  *educontent.ValidationError
	fields map[string]string
}

func (e *fieldErrors) Error() string { return e.first.Error() }
func (e *fieldErrors) Unwrap() error { return e.first }

// validateStruct runs the struct tags of a request DTO.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &educontent.ValidationError{Reason: err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return &fieldErrors{
		first:  &educontent.ValidationError{Field: verrs[0].Field(), Reason: describe(verrs[0])},
		fields: fields,
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "agegroup", "classlevel", "category", "area":
		return "is not a recognized value"
	default:
		return "is invalid"
	}
}
