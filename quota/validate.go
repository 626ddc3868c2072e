package quota

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldError describes one config field that failed validation.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors collects every violation found in one config.
type FieldErrors []FieldError

// Error renders the violations as a single line.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

// Fields returns the offending field names in declaration order.
func (fe FieldErrors) Fields() []string {
	fields := make([]string, len(fe))
	for i, f := range fe {
		fields[i] = f.Field
	}
	return fields
}

var configValidator *validator.Validate
var configTranslator ut.Translator

func init() {
	configValidator = validator.New()

	var ok bool
	configTranslator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("quota: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(configValidator, configTranslator); err != nil {
		panic(err)
	}

	// Violations are reported under json field names.
	configValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// validateConfig checks cfg against its declared tags, reporting all
// violations together as a FieldErrors value.
func validateConfig(cfg Config) error {
	err := configValidator.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return err
	}

	fields := make(FieldErrors, 0, len(verrors))
	for _, verror := range verrors {
		fields = append(fields, FieldError{
			Field: verror.Field(),
			Err:   verror.Translate(configTranslator),
		})
	}

	return fields
}
