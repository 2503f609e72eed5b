package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

const (
	minAge = 18
	maxAge = 120
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

var phoneRegexp = regexp.MustCompile(`^\+?[0-9\s\-().]+$`)

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

var errInvalidDate = errors.New("date must be in YYYY-MM-DD or RFC 3339 format")

// ParseDate parses calendar date and returns it as UTC midnight
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errInvalidDate
}

// Age returns number of full calendar years between birth date and now
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

type rule struct {
	tag         string
	fn          validator.Func
	translation string
}

func registerRules(v *validator.Validate, trans ut.Translator, clock Clock) error {
	rules := []rule{
		{
			tag:         "pastdate",
			fn:          pastDate(clock),
			translation: "{0} must be a valid date (YYYY-MM-DD) not in the future",
		},
		{
			tag:         "adult",
			fn:          adult(clock),
			translation: fmt.Sprintf("{0} must correspond to an age between %d and %d years", minAge, maxAge),
		},
		{
			tag:         "phone",
			fn:          phone,
			translation: fmt.Sprintf("{0} must be a valid phone number with %d to %d digits", minPhoneDigits, maxPhoneDigits),
		},
		{
			tag:         "immutable",
			fn:          immutable,
			translation: "{0} cannot be modified",
		},
	}

	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			return fmt.Errorf("failed to register %s rule - %w", r.tag, err)
		}

		if err := registerTranslation(v, trans, r.tag, r.translation); err != nil {
			return err
		}
	}

	v.RegisterStructValidation(atLeastOneField, UpdateCustomer{})
	return registerTranslation(v, trans, atLeastOneTag, "at least one field must be provided for update")
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag string, text string) error {
	err := v.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
		return ut.Add(tag, text, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, err := ut.T(tag, fe.Field())
		if err != nil {
			return fe.Error()
		}
		return t
	})
	if err != nil {
		return fmt.Errorf("failed to register %s translation - %w", tag, err)
	}
	return nil
}

func pastDate(clock Clock) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := ParseDate(fl.Field().String())
		if err != nil {
			return false
		}
		return !d.After(clock().UTC())
	}
}

func adult(clock Clock) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := ParseDate(fl.Field().String())
		if err != nil {
			return false
		}

		age := Age(d, clock().UTC())
		return age >= minAge && age <= maxAge
	}
}

func phone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !phoneRegexp.MatchString(s) {
		return false
	}

	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// immutable fails whenever field was present in payload, even when it holds null
func immutable(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Slice, reflect.Map:
		return f.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return f.IsNil()
	default:
		return f.IsZero()
	}
}
