package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var ErrInvalidPayload = errors.New("invalid form payload")

// ValidationError maps json field names to translated messages.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return strings.Join(msgs, "; ")
}

var platePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 -]{1,14}$`)

// Binder decodes form payloads and validates them with English messages.
type Binder struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewBinder() *Binder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, translator)

	_ = v.RegisterValidation("plate", func(fl validator.FieldLevel) bool {
		return platePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterTranslation("plate", translator, func(ut ut.Translator) error {
		return ut.Add("plate", "{0} must be a valid license plate", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("plate", fe.Field())
		return t
	})
	_ = v.RegisterTranslation("required", translator, func(ut ut.Translator) error {
		return ut.Add("required", "{0} is required", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("required", fe.Field())
		return t
	})

	return &Binder{validate: v, translator: translator}
}

// Decode reads payload into target, rejecting unknown fields.
func (b *Binder) Decode(payload []byte, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func (b *Binder) Validate(target any) error {
	err := b.validate.Struct(target)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = fe.Translate(b.translator)
	}
	return out
}
