package apperr

// Field-level validation messages, kept stable because clients match on
// them.
const (
	MsgInvalidRequest  = "Invalid Request"
	MsgRequired        = "Required"
	MsgInvalidAuth     = "Invalid Auth Type."
	MsgInvalidPassword = "Invalid Password."
	MsgMalformedBody   = "Malformed Body."
)

// FieldError names a single invalid request field. ValidationErrors carries
// the identifiers of the password rules that failed, when applicable.
type FieldError struct {
	Field            string   `json:"field"`
	Message          string   `json:"message"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
}

// FieldErrors accumulates field errors for one request. The zero value is
// ready to use; a request proceeds only when Empty.
type FieldErrors struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"data"`
}

// NewFieldErrors returns a collector with the standard top-level message.
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{Message: MsgInvalidRequest}
}

// Add records a violation for field.
func (fe *FieldErrors) Add(field, message string, validationErrors ...string) {
	fe.Fields = append(fe.Fields, FieldError{
		Field:            field,
		Message:          message,
		ValidationErrors: validationErrors,
	})
}

// Empty reports whether no violations were recorded.
func (fe *FieldErrors) Empty() bool { return len(fe.Fields) == 0 }
