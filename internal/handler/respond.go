package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/pizzeria/internal/domain/cart"
	"github.com/xenking/pizzeria/internal/domain/catalog"
	"github.com/xenking/pizzeria/internal/domain/order"
	"github.com/xenking/pizzeria/internal/session"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// badRequestError marks malformed input detected before reaching the domain.
type badRequestError struct {
	message string
	details map[string]string
}

func (e *badRequestError) Error() string {
	return e.message
}

// decodeJSON reads r's body into dest and runs struct validation.
func decodeJSON(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return &badRequestError{message: "invalid request body", details: map[string]string{"error": err.Error()}}
	}
	if err := validate.Struct(dest); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			details := make(map[string]string, len(errs))
			for _, fe := range errs {
				details[fe.Field()] = validationMessage(fe)
			}
			return &badRequestError{message: "validation failed", details: details}
		}
		return &badRequestError{message: "validation failed"}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already written; an encode error means the client left.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP responses. Unknown errors are logged
// and reported as 500 without leaking their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := mapError(err)
	if resp.Code == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, resp.Code, resp)
}

func mapError(err error) errorResponse {
	var badReq *badRequestError
	if errors.As(err, &badReq) {
		return errorResponse{Code: http.StatusBadRequest, Message: badReq.message, Details: badReq.details}
	}

	var orderErr *order.ValidationError
	if errors.As(err, &orderErr) {
		resp := errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: orderErr.Error(),
			Reason:  string(orderErr.Reason),
		}
		if orderErr.Field != "" {
			resp.Details = map[string]string{orderErr.Field: orderErr.Message}
		}
		return resp
	}

	var pizzaErr *catalog.ValidationError
	if errors.As(err, &pizzaErr) {
		return errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: "invalid pizza",
			Details: map[string]string{pizzaErr.Field: pizzaErr.Message},
		}
	}

	var rangeErr *cart.IndexOutOfRangeError
	if errors.As(err, &rangeErr) {
		return errorResponse{Code: http.StatusConflict, Message: "stale line index: " + rangeErr.Error()}
	}

	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, session.ErrNotFound):
		return errorResponse{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, order.ErrInvalidTransition):
		return errorResponse{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, catalog.ErrUnknownSize):
		return errorResponse{Code: http.StatusBadRequest, Message: err.Error()}
	}

	return errorResponse{Code: http.StatusInternalServerError, Message: "internal error"}
}
