// Package validation runs struct-tag rules and turns failures into a
// field-keyed map of human-readable messages.
//
// Fields are named after their json tag. A field's message comes from its
// `msg` tag, falling back to a generic text per rule.
package validation

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a request field to its message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)

	mustRegister(v, "notemail", notEmail)
	mustRegister(v, "nonnegative", nonNegative)
	mustRegister(v, "float", isFloat)

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Rejections records request fields whose value could not be decoded into
// the field's type. Embed it in a request struct; Struct reports the recorded
// fields together with the rule failures.
type Rejections struct {
	fields Errors
}

// Reject marks field as undecodable with message.
func (r *Rejections) Reject(field, message string) {
	if r.fields == nil {
		r.fields = make(Errors)
	}
	r.fields[field] = message
}

// Rejected returns the recorded fields, or nil.
func (r *Rejections) Rejected() Errors {
	return r.fields
}

// Rejecter is implemented by request structs that embed Rejections.
type Rejecter interface {
	Reject(field, message string)
}

// Struct validates every field of s and returns all failures, or nil.
// Fields rejected while decoding are reported with their decode message.
func (v *Validator) Struct(s any) Errors {
	out := v.rules(s)
	if r, ok := s.(interface{ Rejected() Errors }); ok {
		for field, msg := range r.Rejected() {
			if out == nil {
				out = make(Errors)
			}
			out[field] = msg
		}
	}
	return out
}

func (v *Validator) rules(s any) Errors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{"_": err.Error()}
	}

	out := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(s, fe.StructField(), fe)
	}
	return out
}

// FieldMessage returns the message configured for the field named jsonField,
// used when a value could not even be decoded into s.
func FieldMessage(s any, jsonField string) string {
	t := indirectType(s)
	if t.Kind() != reflect.Struct {
		return "Invalid value"
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if jsonName(f) == jsonField {
			if msg := f.Tag.Get("msg"); msg != "" {
				return msg
			}
			break
		}
	}
	return "Invalid value"
}

func message(s any, structField string, fe validator.FieldError) string {
	if f, ok := indirectType(s).FieldByName(structField); ok {
		if msg := f.Tag.Get("msg"); msg != "" {
			return msg
		}
	}

	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email"
	case "notemail":
		return fe.Field() + " cannot be an email"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "float":
		return fe.Field() + " must be a number"
	case "datetime":
		return fe.Field() + " must be a date in YYYY-MM-DD format"
	default:
		return fe.Field() + " is invalid"
	}
}

func indirectType(s any) reflect.Type {
	t := reflect.TypeOf(s)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return reflect.TypeOf(struct{}{})
	}
	return t
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func notEmail(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !strings.Contains(s, "@") {
		return true
	}
	_, err := mail.ParseAddress(s)
	return err != nil
}

// isFloat accepts strings holding a finite decimal or exponent number,
// surrounding whitespace allowed.
func isFloat(fl validator.FieldLevel) bool {
	_, ok := parseFloat(fl.Field().String())
	return ok
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// nonNegative accepts numbers, and numeric strings, that are >= 0.
func nonNegative(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		f, ok := parseFloat(field.String())
		return ok && f >= 0
	case reflect.Float32, reflect.Float64:
		return field.Float() >= 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int() >= 0
	default:
		return true
	}
}
