package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/auth"
	"github.com/vasiliy-maslov/campus-eats/internal/catalog"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
	"github.com/vasiliy-maslov/campus-eats/internal/user"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Type("payload_type", payload).Msg("http: failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("http: failed to write JSON response")
	}
}

// errorMapping lists the errors that reach clients. When detail is set the
// full error text is returned, otherwise only the sentinel's text.
var errorMapping = []struct {
	err    error
	code   int
	detail bool
}{
	{err: order.ErrOrderNotFound, code: http.StatusNotFound},
	{err: catalog.ErrVendorNotFound, code: http.StatusNotFound},
	{err: catalog.ErrMenuItemNotFound, code: http.StatusNotFound},
	{err: user.ErrNotFound, code: http.StatusNotFound},
	{err: auth.ErrForbidden, code: http.StatusForbidden},
	{err: user.ErrInvalidCredentials, code: http.StatusUnauthorized},
	{err: auth.ErrVendorScopeRequired, code: http.StatusBadRequest},
	{err: order.ErrInvalidStatus, code: http.StatusBadRequest, detail: true},
	{err: order.ErrInvalidEta, code: http.StatusBadRequest, detail: true},
	{err: order.ErrOrderAlreadyTerminal, code: http.StatusConflict, detail: true},
	{err: order.ErrInvalidTransition, code: http.StatusConflict, detail: true},
	{err: order.ErrStatusConflict, code: http.StatusConflict},
}

func mapErrorToStatusCode(err error) int {
	if errors.Is(err, order.ErrValidation) {
		return http.StatusBadRequest
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

// clientMessage returns the text a client sees for a mapped error.
func clientMessage(err error) string {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			if m.detail {
				return err.Error()
			}
			return m.err.Error()
		}
	}
	return err.Error()
}

// respondWithServiceError writes err as returned by a service. Unmapped
// errors are logged and answered with fallback.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *order.ValidationError
	if errors.As(err, &verr) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{Error: "Validation failed", Details: verr.Fields})
		return
	}

	statusCode := mapErrorToStatusCode(err)
	if statusCode == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(fallback)
		respondWithError(w, statusCode, fallback)
		return
	}

	log.Warn().Err(err).Str("path", r.URL.Path).Int("status", statusCode).Msg("http: request rejected")
	respondWithError(w, statusCode, clientMessage(err))
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, e := range errs {
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		var message string
		switch e.Tag() {
		case "required":
			message = "is required"
		case "email":
			message = "must be a valid email address"
		case "uuid":
			message = "must be a valid UUID"
		case "gt":
			message = fmt.Sprintf("must be greater than %s", e.Param())
		case "lte":
			message = fmt.Sprintf("must be at most %s", e.Param())
		case "min":
			if e.Kind() == reflect.Slice {
				message = fmt.Sprintf("must contain at least %s item(s)", e.Param())
			} else {
				message = fmt.Sprintf("must be at least %s characters", e.Param())
			}
		case "max":
			message = fmt.Sprintf("must be at most %s characters", e.Param())
		default:
			message = fmt.Sprintf("failed on the '%s' rule", e.Tag())
		}
		details[field] = message
	}
	return details
}

// decodeAndValidate reads a JSON body into dst and validates it. On failure
// it writes the response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("http: failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return false
	}

	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("http: unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func actorFrom(r *http.Request) auth.Actor {
	a, _ := auth.ActorFromContext(r.Context())
	return a
}
