package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"churchadmin/internal/models"
)

// DateLayout is the format of every date field
const DateLayout = "2006-01-02"

// Length limits in characters. Single line fields are stored as VARCHAR(255)
// on MySQL and textarea fields as TEXT.
const (
	MaxFieldLength = 255
	MaxTextLength  = 10000
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ()\-]{7,20}$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return MaxLength("email", email, MaxFieldLength)
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return MaxLength("name", name, MaxFieldLength)
}

// MaxLength rejects values longer than max characters
func MaxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}

// Required rejects blank values
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// Date checks that a non-empty value is a YYYY-MM-DD date
func Date(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	}
	return nil
}

// DateOrder checks that end is not before start when both are set
func DateOrder(startField, start, endField, end string) error {
	if start == "" || end == "" {
		return nil
	}
	s, err1 := time.Parse(DateLayout, start)
	e, err2 := time.Parse(DateLayout, end)
	if err1 != nil || err2 != nil {
		return nil
	}
	if e.Before(s) {
		return ValidationError{Field: endField, Message: "cannot be before " + strings.ReplaceAll(startField, "_", " ")}
	}
	return nil
}

// OneOf checks that a non-empty value is in the named option set
func OneOf(field, value, optionSet string) error {
	if value == "" {
		return nil
	}
	allowed := models.OptionValues(optionSet)
	if !slices.Contains(allowed, value) {
		return ValidationError{Field: field, Message: "must be one of " + strings.Join(allowed, ", ")}
	}
	return nil
}

// Email checks that a non-empty value looks like an email address
func Email(field, value string) error {
	if value == "" {
		return nil
	}
	if !emailRegex.MatchString(value) {
		return ValidationError{Field: field, Message: "invalid email format"}
	}
	return nil
}

// Phone checks that a non-empty value looks like a phone number
func Phone(field, value string) error {
	if value == "" {
		return nil
	}
	if !phoneRegex.MatchString(value) {
		return ValidationError{Field: field, Message: "invalid phone number"}
	}
	return nil
}

// First returns the first non-nil error
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Record validates a record struct using its field tags: required fields must
// be non-blank, no field may exceed its column length, and date, email, tel
// and select inputs must be well formed.
// The first failing field, in declaration order, is returned.
func Record(v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("validation: %T is not a struct", v)
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Anonymous || f.Type.Kind() != reflect.String {
			continue
		}
		input := f.Tag.Get("input")
		if input == "-" || input == "readonly" {
			continue
		}
		field := strings.Split(f.Tag.Get("json"), ",")[0]
		value := strings.TrimSpace(rv.Field(i).String())

		limit := MaxFieldLength
		if input == "textarea" {
			limit = MaxTextLength
		}
		err := MaxLength(field, value, limit)
		if err == nil && f.Tag.Get("required") == "true" {
			err = Required(field, value)
		}
		if err == nil {
			switch {
			case input == "date":
				err = Date(field, value)
			case input == "email":
				err = Email(field, value)
			case input == "tel":
				err = Phone(field, value)
			case strings.HasPrefix(input, "select:"):
				err = OneOf(field, value, strings.TrimPrefix(input, "select:"))
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// TrimStrings trims surrounding whitespace from every string field of a struct pointer
func TrimStrings(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return
	}
	rv = rv.Elem()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}
