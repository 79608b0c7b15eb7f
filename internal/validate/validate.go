// Package validate checks configuration structs against their declared
// `validate` tags and reports failures as field errors.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   = validator.New(validator.WithRequiredStructEnabled())
	translator ut.Translator
)

func init() {
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(fieldName)
}

// fieldName reports a field by its mapstructure key, the name used by
// flags, environment variables and config files.
func fieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}

	return name
}

// Check validates val against its declared tags. Failures are returned
// as FieldErrors; any other error means val could not be validated at
// all, for example because it is not a struct.
func Check(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(FieldErrors, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, FieldError{Field: verr.Field(), Err: message(verr)})
	}

	return fields
}

// FieldError is a failed rule on a single field.
type FieldError struct {
	Field string
	Err   string
}

// FieldErrors is every failed rule of one Check call.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, fld := range fe {
		msgs[i] = fld.Field + ": " + fld.Err
	}

	return strings.Join(msgs, "; ")
}

// Fields returns the failing fields keyed by name.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, fld := range fe {
		m[fld.Field] = fld.Err
	}

	return m
}

func message(verr validator.FieldError) string {
	if verr.Tag() == "required" {
		return "This field is required"
	}

	return verr.Translate(translator)
}
