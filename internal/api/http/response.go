package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
)

type errorPayload struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Details []validationDetail `json:"details,omitempty"`
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

type validationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var statusByKind = map[domain.ErrorKind]int{
	domain.KindValidation:        http.StatusBadRequest,
	domain.KindInsufficientFunds: http.StatusUnprocessableEntity,
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindConflict:          http.StatusConflict,
	domain.KindPermission:        http.StatusForbidden,
	domain.KindExternalService:   http.StatusBadGateway,
}

// StatusFor maps an error to its HTTP status; unclassified errors are 500
func StatusFor(err error) int {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	payload := errorPayload{Code: "INTERNAL", Message: "internal error"}

	var domainErr *domain.Error
	switch {
	case errors.As(err, &domainErr):
		payload.Code = domainErr.Code
		payload.Message = domainErr.Message
	case status == http.StatusInternalServerError:
		logger.Error("Unhandled error", "error", err)
	}
	writeJSON(w, status, errorBody{Error: payload})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorPayload{Code: "UNAUTHENTICATED", Message: message}})
}

func writeValidationError(w http.ResponseWriter, err error) {
	payload := errorPayload{Code: domain.ErrValidation.Code, Message: "request validation failed"}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			payload.Details = append(payload.Details, validationDetail{Field: e.Field(), Message: validationMessage(e)})
		}
	} else {
		payload.Message = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Error: payload})
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report JSON names in error details
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "max":
		return "Must be at most " + e.Param()
	case "min":
		return "Must be at least " + e.Param()
	default:
		return "Invalid value"
	}
}
