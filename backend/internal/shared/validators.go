package shared

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
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags
	notBlankTag       = "notblank"
	assignmentTypeTag = "assignment_type"
	userTypeTag       = "user_type"

	// built in, but without a default translation
	objectIDTag = "mongodb"
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = Validate.RegisterValidation(assignmentTypeTag, assignmentTypeValidation)
	_ = Validate.RegisterValidation(userTypeTag, userTypeValidation)

	registerCustomValidationsTranslations(notBlankTag, assignmentTypeTag, userTypeTag, objectIDTag)
}

// registerCustomValidationsTranslations registers messages for the custom tags.
// The default translations are already registered, so a noop register func is passed.
func registerCustomValidationsTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = Validate.RegisterTranslation(tag, Translator, registerFn, translateCustomValidationErrs)
	}
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case assignmentTypeTag:
		return "Invalid assignment type"
	case userTypeTag:
		return "Invalid user type"
	case objectIDTag:
		return "invalid id"
	default:
		return ""
	}
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func assignmentTypeValidation(fl validator.FieldLevel) bool {
	return IsValidAssignmentType(fl.Field().String())
}

func userTypeValidation(fl validator.FieldLevel) bool {
	t := Role(fl.Field().String())
	return t == RoleStudent || t == RoleTeacher
}

// ValidateStruct runs the struct's validate tags and turns the first failure
// into a Validation AppError with a readable message.
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		return NewValidationError(vErrs[0].Translate(Translator))
	}
	return NewValidationError(err.Error())
}
