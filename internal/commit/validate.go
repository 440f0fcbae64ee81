package commit

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// reasons maps a failed validation tag to the message carried by ValidationError.
var reasons = map[string]string{
	"required":         "must not be empty",
	"cc_type":          "must be a single token without whitespace or any of ( ) ! :",
	"cc_scope":         "must not contain parentheses or line breaks",
	"cc_line":          "must be a single line",
	"cc_paragraph":     "must not contain a blank line or start or end with a line break",
	"cc_trailer_key":   "must be BREAKING CHANGE or a token without whitespace or ':'",
	"cc_trailer_value": "line breaks must be followed by a space or tab and carriage returns are not allowed",
}

func newValidator() *validator.Validate {
	v := validator.New()
	rules := map[string]validator.Func{
		"cc_type":          func(fl validator.FieldLevel) bool { return isType(fl.Field().String()) },
		"cc_scope":         func(fl validator.FieldLevel) bool { return isScope(fl.Field().String()) },
		"cc_line":          func(fl validator.FieldLevel) bool { return isSingleLine(fl.Field().String()) },
		"cc_paragraph":     func(fl validator.FieldLevel) bool { return isParagraph(fl.Field().String()) },
		"cc_trailer_key":   func(fl validator.FieldLevel) bool { return isTrailerKey(fl.Field().String()) },
		"cc_trailer_value": func(fl validator.FieldLevel) bool { return isTrailerValue(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("commit: registering %s: %v", tag, err))
		}
	}
	return v
}

// check validates value against tag and converts the first failure into a
// ValidationError for field.
func check(field, value, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	reason := "invalid value"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if r, ok := reasons[verrs[0].Tag()]; ok {
			reason = r
		}
	}
	return &ValidationError{Field: field, Reason: reason}
}

func isType(s string) bool {
	return !strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("()!:", r)
	})
}

func isScope(s string) bool {
	return !strings.ContainsAny(s, "()\r\n")
}

func isSingleLine(s string) bool {
	return !strings.ContainsAny(s, "\r\n")
}

func isParagraph(s string) bool {
	return !strings.Contains(s, "\n\n") &&
		!strings.HasPrefix(s, "\n") &&
		!strings.HasSuffix(s, "\n")
}

func isTrailerKey(s string) bool {
	if s == breakingChangeToken {
		return true
	}
	return s != "" && !strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':'
	})
}

// isTrailerValue accepts values whose every line break starts a continuation
// line, so the value cannot be mistaken for the next trailer.
func isTrailerValue(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' {
			continue
		}
		if i+1 >= len(s) || (s[i+1] != ' ' && s[i+1] != '\t') {
			return false
		}
	}
	return !strings.Contains(s, "\r")
}
