package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/adapter/http/dto"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/plastinin/schoolmigrate/internal/usecase"
	"go.uber.org/zap"
)

// ImportRunHandler обработчик HTTP запросов для истории импорта
type ImportRunHandler struct {
	responder
	runUC *usecase.ImportRunUseCase
}

// NewImportRunHandler создаёт новый ImportRunHandler
func NewImportRunHandler(runUC *usecase.ImportRunUseCase, logger *zap.Logger) *ImportRunHandler {
	return &ImportRunHandler{
		responder: responder{logger: logger},
		runUC:     runUC,
	}
}

// GetByID возвращает запуск по ID
// GET /api/v1/imports/{id}
func (h *ImportRunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_id", "Invalid import run ID format")
		return
	}

	run, err := h.runUC.GetByID(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err, "Failed to get import run")
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ImportRunFromDomain(run))
}

// List возвращает историю импорта
// GET /api/v1/imports?page=1&page_size=20&data_type=students&school_id=...
func (h *ImportRunHandler) List(w http.ResponseWriter, r *http.Request) {
	// Парсим параметры пагинации
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	pagination := domain.NewPagination(page, pageSize)

	// Парсим фильтры
	filter := domain.ImportRunFilter{}
	if dtStr := r.URL.Query().Get("data_type"); dtStr != "" {
		dataType := domain.DataType(dtStr)
		if dataType.IsValid() {
			filter.DataType = &dataType
		}
	}
	if schoolStr := r.URL.Query().Get("school_id"); schoolStr != "" {
		schoolID, err := uuid.Parse(schoolStr)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid_school_id", "Invalid school ID format")
			return
		}
		filter.SchoolID = &schoolID
	}

	result, err := h.runUC.List(r.Context(), filter, pagination)
	if err != nil {
		h.respondDomainError(w, err, "Failed to list import runs")
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ImportRunListFromDomain(result))
}
