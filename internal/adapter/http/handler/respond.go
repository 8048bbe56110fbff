package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plastinin/schoolmigrate/internal/adapter/http/dto"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"go.uber.org/zap"
)

// responder общие методы ответа для обработчиков
type responder struct {
	logger *zap.Logger
}

// respondJSON отправляет JSON ответ
func (h responder) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError отправляет ответ с ошибкой
func (h responder) respondError(w http.ResponseWriter, status int, errCode string, message string) {
	h.respondJSON(w, status, dto.NewErrorResponse(errCode, message))
}

// respondDomainError переводит ошибку домена в HTTP статус:
// 400 для ошибок пользователя, 404 для неизвестных сущностей, 409 для недопустимого перехода
func (h responder) respondDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		h.respondError(w, http.StatusNotFound, "not_found", "Session not found")
		return
	case errors.Is(err, domain.ErrImportRunNotFound):
		h.respondError(w, http.StatusNotFound, "not_found", "Import run not found")
		return
	case errors.Is(err, domain.ErrInvalidTransition):
		h.respondError(w, http.StatusConflict, "invalid_transition", err.Error())
		return
	case !domain.IsUserError(err):
		h.logger.Error(fallback, zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal_error", fallback)
		return
	}

	h.respondJSON(w, http.StatusBadRequest, &dto.ErrorResponse{
		Error:   errorCode(err),
		Message: err.Error(),
		Hint:    domain.Hint(err),
		Fields:  errorFields(err),
	})
}

var errorCodes = []struct {
	target error
	code   string
}{
	{domain.ErrUnsupportedFormat, "unsupported_format"},
	{domain.ErrMissingFields, "missing_fields"},
	{domain.ErrUnmappedRequiredFields, "unmapped_required_fields"},
	{domain.ErrDuplicateMapping, "duplicate_mapping"},
	{domain.ErrUnknownDataType, "unknown_data_type"},
	{domain.ErrUnknownColumn, "unknown_column"},
	{domain.ErrUnknownField, "unknown_field"},
	{domain.ErrDuplicateColumn, "duplicate_column"},
	{domain.ErrEmptyFile, "empty_file"},
	{domain.ErrUnreadableFile, "unreadable_file"},
}

func errorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return "invalid_request"
}

func errorFields(err error) []string {
	var missing *domain.MissingFieldsError
	if errors.As(err, &missing) {
		return missing.Fields
	}
	var unmapped *domain.UnmappedRequiredFieldsError
	if errors.As(err, &unmapped) {
		return unmapped.Fields
	}
	var duplicate *domain.DuplicateMappingError
	if errors.As(err, &duplicate) {
		return []string{duplicate.Field}
	}
	return nil
}
