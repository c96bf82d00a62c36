package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

// ParseOrderRequest decodes a create-order body. Any syntax or type error,
// including an empty body, is reported as KindMalformedInput.
func ParseOrderRequest(r io.Reader) (models.OrderRequest, error) {
	var req models.OrderRequest

	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		return models.OrderRequest{}, &CreateError{
			Kind:      KindMalformedInput,
			Message:   malformedMessage(err),
			ItemIndex: -1,
			Err:       err,
		}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.OrderRequest{}, &CreateError{
			Kind:      KindMalformedInput,
			Message:   "unexpected data after JSON body",
			ItemIndex: -1,
			Err:       err,
		}
	}

	return req, nil
}

func malformedMessage(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type)
	default:
		return "invalid request body"
	}
}
