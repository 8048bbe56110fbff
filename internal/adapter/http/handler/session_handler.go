package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/adapter/http/dto"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/plastinin/schoolmigrate/internal/usecase"
	"go.uber.org/zap"
)

// SessionHandler обработчик HTTP запросов мастера импорта
type SessionHandler struct {
	responder
	wizardUC      *usecase.WizardUseCase
	maxUploadSize int64
	displayWidth  int
}

// NewSessionHandler создаёт новый SessionHandler
func NewSessionHandler(wizardUC *usecase.WizardUseCase, maxUploadSize int64, displayWidth int, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		responder:     responder{logger: logger},
		wizardUC:      wizardUC,
		maxUploadSize: maxUploadSize,
		displayWidth:  displayWidth,
	}
}

// Open открывает новый мастер
// POST /api/v1/sessions {"school_id": "..."}
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	schoolID, err := uuid.Parse(req.SchoolID)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_school_id", "Invalid school ID format")
		return
	}

	snapshot, err := h.wizardUC.Open(r.Context(), schoolID)
	if err != nil {
		h.respondDomainError(w, err, "Failed to open session")
		return
	}

	h.respondJSON(w, http.StatusCreated, dto.SessionFromSnapshot(snapshot, h.displayWidth))
}

// Get возвращает состояние мастера
// GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.respondSnapshot(w)(h.wizardUC.Get(r.Context(), id))
}

// Close закрывает мастер
// DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.wizardUC.Close(r.Context(), id); err != nil {
		h.respondDomainError(w, err, "Failed to close session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SelectType выбирает тип данных
// PUT /api/v1/sessions/{id}/type {"data_type": "students"}
func (h *SessionHandler) SelectType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req dto.SelectTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	h.respondSnapshot(w)(h.wizardUC.SelectType(r.Context(), id, domain.DataType(req.DataType)))
}

// Template отдаёт шаблон выбранного типа данных
// GET /api/v1/sessions/{id}/template?format=csv|xlsx
func (h *SessionHandler) Template(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	format, err := domain.ParseFileFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.respondDomainError(w, err, "Failed to write template")
		return
	}

	var buf bytes.Buffer
	dataType, err := h.wizardUC.WriteSessionTemplate(r.Context(), id, &buf, format)
	if err != nil {
		h.respondDomainError(w, err, "Failed to write template")
		return
	}

	writeAttachment(w, templateFileName(dataType, format), format, buf.Bytes())
}

// Upload загружает файл с данными
// POST /api/v1/sessions/{id}/file
// Content-Type: multipart/form-data
// - file: CSV или XLSX
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	// Ограничиваем размер загрузки
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.logger.Warn("Failed to parse multipart form", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds the upload limit")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid_request", "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn("Failed to get file from form", zap.Error(err))
		h.respondError(w, http.StatusBadRequest, "file_required", "File is required")
		return
	}
	defer file.Close()

	input := usecase.UploadInput{
		FileName: header.Filename,
		FileSize: header.Size,
		Reader:   file,
	}

	h.respondSnapshot(w)(h.wizardUC.Upload(r.Context(), id, input))
}

// SetMapping меняет маппинг колонок
// PUT /api/v1/sessions/{id}/mapping {"mapping": {"Full Name": "name", "Notes": ""}}
func (h *SessionHandler) SetMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req dto.MappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	h.respondSnapshot(w)(h.wizardUC.SetMapping(r.Context(), id, req.Mapping))
}

// Next переход на следующий шаг
// POST /api/v1/sessions/{id}/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.respondSnapshot(w)(h.wizardUC.Next(r.Context(), id))
}

// Back возврат на предыдущий шаг
// POST /api/v1/sessions/{id}/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.respondSnapshot(w)(h.wizardUC.Back(r.Context(), id))
}

// SetDryRun переключает пробный прогон
// PUT /api/v1/sessions/{id}/dry-run {"dry_run": false}
func (h *SessionHandler) SetDryRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req dto.DryRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DryRun == nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "dry_run is required")
		return
	}

	h.respondSnapshot(w)(h.wizardUC.SetDryRun(r.Context(), id, *req.DryRun))
}

// Import запускает импорт
// POST /api/v1/sessions/{id}/import
func (h *SessionHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.respondSnapshot(w)(h.wizardUC.Import(r.Context(), id))
}

// Finish завершает мастер
// POST /api/v1/sessions/{id}/finish
func (h *SessionHandler) Finish(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.respondSnapshot(w)(h.wizardUC.Finish(r.Context(), id))
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_id", "Invalid session ID format")
		return uuid.Nil, false
	}
	return id, true
}

// respondSnapshot отвечает состоянием мастера или ошибкой операции
func (h *SessionHandler) respondSnapshot(w http.ResponseWriter) func(domain.Snapshot, error) {
	return func(snapshot domain.Snapshot, err error) {
		if err != nil {
			h.respondDomainError(w, err, "Wizard operation failed")
			return
		}
		h.respondJSON(w, http.StatusOK, dto.SessionFromSnapshot(snapshot, h.displayWidth))
	}
}
