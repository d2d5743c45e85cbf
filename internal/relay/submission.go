package relay

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ConsentGiven is the only accepted value of the consent checkbox.
const ConsentGiven = "on"

// Submission is the contact form payload, accepted as JSON or form fields.
type Submission struct {
	Name           string `json:"name" validate:"required,min=2"`
	Company        string `json:"company,omitempty"`
	Email          string `json:"email" validate:"required,email"`
	Telephone      string `json:"telephone,omitempty"`
	ProjectAddress string `json:"projectAddress,omitempty"`
	Message        string `json:"message" validate:"required,min=10"`
	GDPRConsent    string `json:"gdprConsent" validate:"eq=on"`
}

// ValidationError carries user-facing messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

var fieldMessages = map[string]string{
	"name":        "Name must be at least 2 characters.",
	"email":       "Please enter a valid email address.",
	"message":     "Message must be at least 10 characters.",
	"gdprConsent": "You must agree to the privacy policy.",
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate returns a *ValidationError when the submission is not acceptable.
func (v *Validator) Validate(sub Submission) error {
	err := v.validate.Struct(sub)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate submission: %w", err)
	}

	out := &ValidationError{Fields: make(map[string][]string)}
	for _, fe := range errs {
		field := fe.Field()
		if len(out.Fields[field]) > 0 {
			continue
		}
		out.Fields[field] = append(out.Fields[field], messageFor(field))
	}
	return out
}

// FieldError reports a single field, e.g. one whose JSON value had the wrong type.
func FieldError(field string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {messageFor(field)}}}
}

func messageFor(field string) string {
	if msg, ok := fieldMessages[field]; ok {
		return msg
	}
	return "Invalid value."
}

// TimestampLayout matches the en-GB "dd/mm/yyyy, hh:mm:ss" rendering used in
// the spreadsheet and emails.
const TimestampLayout = "02/01/2006, 15:04:05"

// Row is the spreadsheet row for a submission:
// submitted at, name, company, email, telephone, project address, message, consent.
func Row(sub Submission, submittedAt time.Time, loc *time.Location) []any {
	consent := "No"
	if sub.GDPRConsent == ConsentGiven {
		consent = "Yes"
	}
	return []any{
		submittedAt.In(loc).Format(TimestampLayout),
		sub.Name,
		sub.Company,
		sub.Email,
		sub.Telephone,
		sub.ProjectAddress,
		sub.Message,
		consent,
	}
}
