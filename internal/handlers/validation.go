package handlers

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"mafiamadness/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var passwordPattern = regexp.MustCompile(`^[0-9a-zA-Z]{8,16}$`)

// NewValidator returns a validator that reports JSON field names and knows the
// "password" and "personname" rules used by the user requests.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("password", validatePassword)
	_ = v.RegisterValidation("personname", validatePersonName)
	return v
}

// validatePassword accepts 8 to 16 ASCII letters and digits with at least one of each.
func validatePassword(fl validator.FieldLevel) bool {
	pw := fl.Field().String()
	if !passwordPattern.MatchString(pw) {
		return false
	}
	return strings.ContainsAny(pw, "0123456789") && strings.IndexFunc(pw, unicode.IsLetter) >= 0
}

func validatePersonName(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsLetter) >= 0
}

// bindAndValidate decodes the JSON body into dst and runs struct validation.
func bindAndValidate(c *fiber.Ctx, v *validator.Validate, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.InvalidInput(map[string]string{"body": "malformed request body"})
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperr.InvalidInput(nil)
		}
		fields := make(map[string]string, len(verrs))
		for _, e := range verrs {
			fields[fieldName(e)] = e.Tag()
		}
		return apperr.InvalidInput(fields)
	}
	return nil
}

// fieldName strips the struct name from the namespace, keeping dive indexes like players[1].
func fieldName(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}
