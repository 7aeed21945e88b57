package account

import "fmt"

// Form fields a FieldError can point at.
const (
	FieldMobile   = "mobile"
	FieldName     = "name"
	FieldPassword = "password"
)

// Messages shown for local validation failures.
const (
	MsgMobileRequired = "Please enter your mobile number"
	MsgNameRequired   = "Name is required"
	MsgPasswordShort  = "Password must be at least 6 characters"
	MsgEmptyName      = "You Can't Update Empty Name"

	// serverNameEmpty is the only SignUp rejection the server attaches to the name field.
	serverNameEmpty = "Your Name Filed is Empty"
)

// MinPasswordLen is the shortest password SignUp accepts.
const MinPasswordLen = 6

// FieldError is a validation failure that belongs next to one form input.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FormErrors collects the field errors of one submission.
type FormErrors []*FieldError

func (fe FormErrors) Error() string {
	if len(fe) == 1 {
		return fe[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", fe[0].Error(), len(fe)-1)
}

// For returns the message for field, or "".
func (fe FormErrors) For(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Unwrap lets errors.As find each FieldError.
func (fe FormErrors) Unwrap() []error {
	out := make([]error, len(fe))
	for i, e := range fe {
		out[i] = e
	}
	return out
}
