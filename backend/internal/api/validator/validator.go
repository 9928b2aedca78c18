// Package validator registers the domain binding tags on gin's validator
// engine and turns validation failures into readable messages.
package validator

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"literacy-hub/backend/internal/model"
)

// custom tags & texts
var customTags = []struct {
	tag  string
	text string
	fn   validator.Func
}{
	{"lrn", "{0} must be exactly 12 digits", lrnValidation},
	{"grade", "{0} must be a grade from 1 to 6", gradeValidation},
	{"role", "{0} must be a valid role", roleValidation},
	{"subject", "{0} must be english, filipino or math", subjectValidation},
}

var (
	once       sync.Once
	translator ut.Translator
	initErr    error
)

// Register installs the custom tags on gin's default validator. Safe to call
// more than once.
func Register() error {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			initErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		initErr = initValidators(v)
	})
	return initErr
}

func initValidators(v *validator.Validate) error {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
		return err
	}

	// report json/form names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	for _, ct := range customTags {
		if err := v.RegisterValidation(ct.tag, ct.fn); err != nil {
			return err
		}
		if err := registerTranslation(v, ct.tag, ct.text); err != nil {
			return err
		}
	}
	return nil
}

func registerTranslation(v *validator.Validate, tag, text string) error {
	return v.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Describe flattens a bind error into "field: message" pairs. Errors that are
// not validation failures (malformed JSON, wrong types) are returned as is.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || translator == nil {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+fe.Translate(translator))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// ── custom validators ──

func lrnValidation(fl validator.FieldLevel) bool {
	return model.IsValidLRN(fl.Field().String())
}

func gradeValidation(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return model.IsValidGrade(int(fl.Field().Int()))
	}
	return false
}

func roleValidation(fl validator.FieldLevel) bool {
	return model.IsValidRole(fl.Field().String())
}

func subjectValidation(fl validator.FieldLevel) bool {
	return model.IsValidSubject(fl.Field().String())
}
