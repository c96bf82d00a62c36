package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

var (
	ErrInvalidID = errors.New("invalid id")
)

// Kind classifies why an order could not be created
type Kind int

const (
	KindMalformedInput Kind = iota + 1
	KindInvalidItem
	KindProductNotFound
	KindValidationFailed
	KindRemoteClientError
	KindRemoteServerError
	KindRemoteRedirect
	KindRemoteTransport
	KindRemoteDecode
	KindStorageFailure
)

var kindNames = map[Kind]string{
	KindMalformedInput:    "malformed_input",
	KindInvalidItem:       "invalid_item",
	KindProductNotFound:   "product_not_found",
	KindValidationFailed:  "validation_failed",
	KindRemoteClientError: "remote_client_error",
	KindRemoteServerError: "remote_server_error",
	KindRemoteRedirect:    "remote_redirect",
	KindRemoteTransport:   "remote_transport",
	KindRemoteDecode:      "remote_decode",
	KindStorageFailure:    "storage_failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// CreateError is the single failure returned by order creation. Message is
// safe to show to clients; Err holds the underlying cause for logs only.
type CreateError struct {
	Kind       Kind
	Message    string
	ItemIndex  int // -1 when the failure is not tied to one item
	ProductID  string
	Violations []models.Violation
	Err        error
}

func (e *CreateError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.ItemIndex >= 0 {
		fmt.Fprintf(&b, " (item %d", e.ItemIndex)
		if e.ProductID != "" {
			fmt.Fprintf(&b, ", product %s", e.ProductID)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CreateError) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind of a CreateError anywhere in err's chain
func KindOf(err error) (Kind, bool) {
	var ce *CreateError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// ValidationError reports rule violations outside order creation,
// e.g. an address update or a product write
type ValidationError struct {
	Violations []models.Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func validationFailed(violations []models.Violation) *CreateError {
	return &CreateError{
		Kind:       KindValidationFailed,
		Message:    "order validation failed",
		ItemIndex:  -1,
		Violations: violations,
	}
}
