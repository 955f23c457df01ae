// Package validation builds the request validator and turns its failures into
// field/message pairs with English messages.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const notBlankTag = "notblank"

// FieldError is one failed field of a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator pairs the validator with the translator its messages are registered on.
type Validator struct {
	Validate   *validator.Validate
	translator ut.Translator
}

// New returns a validator that reports JSON field names and English messages.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(ut.Translator, validator.FieldError) string { return "this field cannot be blank" },
	)

	return &Validator{Validate: validate, translator: translator}
}

// Translate converts validator failures into field errors. It returns nil when err is not
// a validation failure.
func (v *Validator) Translate(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fe.Translate(v.translator)})
	}
	return fields
}

func notBlank(fl validator.FieldLevel) bool {
	switch value := fl.Field(); value.Kind() {
	case reflect.String:
		return strings.TrimSpace(value.String()) != ""
	case reflect.Ptr:
		if value.IsNil() {
			return true
		}
		if value.Elem().Kind() == reflect.String {
			return strings.TrimSpace(value.Elem().String()) != ""
		}
		return true
	default:
		return true
	}
}
