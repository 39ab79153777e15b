// Package validation checks user input before it reaches the store.
//
// It wraps a go-playground validator singleton that knows the gallery's own
// "slug" tag, and turns validator failures into messages naming the exact
// constraint that was violated.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// SlugRule describes the folder slug format in user-facing messages.
const SlugRule = "must be 3-20 characters of lowercase letters, digits or underscores"

// ValidFolderSlug reports whether s is an acceptable folder slug.
func ValidFolderSlug(s string) bool {
	return slugPattern.MatchString(s)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		if err := registerCustom(validate); err != nil {
			panic(fmt.Sprintf("failed to register validators: %v", err))
		}
	})
	return validate
}

func registerCustom(v *validator.Validate) error {
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return ValidFolderSlug(fl.Field().String())
	})
}

// RegisterWithGin installs the custom tags into gin's binding validator so
// `binding:"slug"` works on request structs.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(jsonFieldName)
	return registerCustom(v)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// FieldError is one violated constraint.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// ValidationError is returned for input rejected before any state changes.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Message)
	}
	return strings.Join(messages, "; ")
}

// NewError builds a single-field ValidationError.
func NewError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Tag: "custom", Message: message}}}
}

// ValidateStruct validates s and returns a *ValidationError, or nil.
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	return Translate(err)
}

// Translate converts validator errors into a *ValidationError. Other errors
// are returned unchanged.
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "slug":
		return fmt.Sprintf("%s %s", field, SlugRule)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
