package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/labstack/echo/v4"
)

type violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// PayloadError contains all field-level violations of the request
type PayloadError struct {
	violations []violation
}

func (e *PayloadError) Error() string {
	buff := bytes.NewBufferString("")

	for _, err := range e.violations {
		buff.WriteString(err.Message)
		buff.WriteString("\n")
	}

	return buff.String()
}

func (e *PayloadError) Violation(v violation) {
	e.violations = append(e.violations, v)
}

// Fields returns paths of all violated fields in order of appearance
func (e *PayloadError) Fields() []string {
	fields := make([]string, 0, len(e.violations))
	for _, v := range e.violations {
		fields = append(fields, v.Field)
	}
	return fields
}

// Has reports whether field has at least one violation
func (e *PayloadError) Has(field string) bool {
	for _, v := range e.violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func (e *PayloadError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Errors []violation `json:"errors"`
	}{
		Errors: e.violations,
	})
}

// Violations returns violations in a form suitable for response envelope
func (e *PayloadError) Violations() any {
	return e.violations
}

// normalizer is implemented by request schemas which must be trimmed and defaulted before rules are checked
type normalizer interface {
	Normalize()
}

// Clock returns current time used by time-dependent rules
type Clock func() time.Time

// EchoValidator validates request schemas, it never touches storage
type EchoValidator struct {
	validator  *validator.Validate
	translator ut.Translator
}

// Echo builds validator with english translations and all customer rules registered
func Echo(clock Clock) (*EchoValidator, error) {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	enLocale := en.New()
	unvTranslator := ut.New(enLocale, enLocale)
	trans, ok := unvTranslator.GetTranslator("en")
	if !ok {
		return nil, errors.New("failed to build validator because of missing en translations")
	}

	v := validator.New()
	v.RegisterTagNameFunc(fieldName)

	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations - %w", err)
	}

	if err := registerRules(v, trans, clock); err != nil {
		return nil, err
	}

	return &EchoValidator{
		validator:  v,
		translator: trans,
	}, nil
}

// Validate normalizes schema in place and checks its rules
func (v *EchoValidator) Validate(i any) error {
	if n, ok := i.(normalizer); ok {
		n.Normalize()
	}

	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return v.payloadError(ve)
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (v *EchoValidator) payloadError(ve validator.ValidationErrors) error {
	pldErr := &PayloadError{violations: make([]violation, 0)}
	for _, e := range ve {
		pldErr.Violation(violation{
			Field:   fieldPath(e.Namespace()),
			Message: e.Translate(v.translator),
			Value:   violationValue(e.Value()),
		})
	}
	return pldErr
}

// fieldPath strips schema name from namespace, so CreateCustomer.address.city becomes address.city
func fieldPath(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func violationValue(v any) any {
	switch val := v.(type) {
	case json.RawMessage:
		return string(val)
	case nil:
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "query", "param"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return ""
}
