package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"cyberdravida/middleware"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	requiredTag  = "required"
	requiredText = "this field is required"

	utrTag  = "utr"
	utrText = "{0} must be 12 to 22 letters or digits"
)

func init() {
	validate = validator.New()
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegisterValidation(utrTag, isUTR)
	registerTranslation(utrTag, utrText, false)
	registerTranslation(requiredTag, requiredText, true)
}

func isUTR(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if len(v) < 12 || len(v) > 22 {
		return false
	}
	for _, r := range v {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return true
}

// mustRegisterValidation panics so a broken rule fails at startup
func mustRegisterValidation(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

func registerTranslation(tag, text string, override bool) {
	err := validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
	if err != nil {
		panic(fmt.Sprintf("register %q translation: %v", tag, err))
	}
}

// Struct validates req and returns translated messages keyed by JSON field
func Struct(req interface{}) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Translate(translator)
	}
	return out
}

// Body parses and validates the JSON body, storing it under key for the handler
func Body[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.BodyParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errs := Struct(req); len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals(key, req)
		return c.Next()
	}
}

// OptionalBody is Body for endpoints whose payload may be omitted entirely
func OptionalBody[T any](key string) fiber.Handler {
	strict := Body[T](key)
	return func(c *fiber.Ctx) error {
		if len(c.Body()) == 0 {
			c.Locals(key, new(T))
			return c.Next()
		}
		return strict(c)
	}
}

// Query parses and validates query parameters, storing them under key
func Query[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.QueryParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errs := Struct(req); len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals(key, req)
		return c.Next()
	}
}

// ParamIDs checks that each named route parameter is a positive integer and
// stores it as uint under the same name.
func ParamIDs(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			raw := strings.TrimSpace(c.Params(name))
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+name+"!", nil)
			}
			c.Locals(name, uint(id))
		}
		return c.Next()
	}
}
