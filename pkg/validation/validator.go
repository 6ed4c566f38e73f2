package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/social-account-service/pkg/apperr"
)

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9_.+-]+@[A-Za-z0-9-]+\.[A-Za-z0-9-.]+$`)
	hex32Re = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

var (
	once sync.Once
	std  *validator.Validate
)

// Init configures the validator used by Gin's binding and by the services.
// - Uses JSON tag names in errors.
// - Registers the account rules: email_fmt, password_fmt, hex32, nickname.
// Gin reads `binding` tags; services validate `validate` tags through Struct.
func Init() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			register(v)
		}
		std = validator.New(validator.WithRequiredStructEnabled())
		register(std)
	})
}

func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("email_fmt", func(fl validator.FieldLevel) bool { return IsEmail(fl.Field().String()) })
	_ = v.RegisterValidation("password_fmt", func(fl validator.FieldLevel) bool { return IsPassword(fl.Field().String()) })
	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool { return IsHex32(fl.Field().String()) })
	_ = v.RegisterValidation("nickname", func(fl validator.FieldLevel) bool { return IsNickname(fl.Field().String()) })
}

// IsEmail reports whether s is an acceptable email address.
func IsEmail(s string) bool { return emailRe.MatchString(s) }

// IsPassword accepts 6 to 30 characters of [A-Za-z0-9_-] containing at least
// one lowercase letter and one digit.
func IsPassword(s string) bool {
	if len(s) < 6 || len(s) > 30 {
		return false
	}
	var lower, digit bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		case c >= 'A' && c <= 'Z', c == '_', c == '-':
		default:
			return false
		}
	}
	return lower && digit
}

// IsHex32 accepts exactly 32 lowercase hex characters.
func IsHex32(s string) bool { return hex32Re.MatchString(s) }

// IsNickname accepts 2 to 30 characters without leading, trailing or
// consecutive spaces.
func IsNickname(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 30 {
		return false
	}
	if strings.TrimSpace(s) != s {
		return false
	}
	return !strings.Contains(s, "  ")
}

// Catalog maps a JSON field name to the error reported when any rule on that
// field fails.
type Catalog map[string]*apperr.Error

// Struct validates s and converts every failing field through catalog.
// Fields missing from catalog fall back to InvalidPayload. The result is nil
// or an apperr.List.
func Struct(s any, catalog Catalog) error {
	Init()
	err := std.Struct(s)
	if err == nil {
		return nil
	}
	return Translate(err, catalog)
}

// Translate converts binding and validation errors into client errors.
func Translate(err error, catalog Catalog) error {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return apperr.InvalidPayload
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.InvalidPayload.Wrap(err)
	}

	var out apperr.List
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if seen[field] {
			continue
		}
		seen[field] = true
		if e, ok := catalog[field]; ok {
			out = append(out, e.On(field))
			continue
		}
		out = append(out, apperr.InvalidPayload.On(field))
	}
	return out.Err()
}
