package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/plastinin/schoolmigrate/internal/adapter/http/dto"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/plastinin/schoolmigrate/internal/usecase"
	"go.uber.org/zap"
)

// TemplateHandler обработчик HTTP запросов для шаблонов импорта
type TemplateHandler struct {
	responder
	wizardUC *usecase.WizardUseCase
}

// NewTemplateHandler создаёт новый TemplateHandler
func NewTemplateHandler(wizardUC *usecase.WizardUseCase, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		responder: responder{logger: logger},
		wizardUC:  wizardUC,
	}
}

// List возвращает все шаблоны
// GET /api/v1/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, dto.TemplateListFromDomain(h.wizardUC.Templates()))
}

// Download отдаёт файл шаблона
// GET /api/v1/templates/{type}/download?format=csv|xlsx
func (h *TemplateHandler) Download(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseFileFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.respondDomainError(w, err, "Failed to write template")
		return
	}

	dataType := domain.DataType(chi.URLParam(r, "type"))

	var buf bytes.Buffer
	if err := h.wizardUC.WriteTemplate(&buf, dataType, format); err != nil {
		h.respondDomainError(w, err, "Failed to write template")
		return
	}

	writeAttachment(w, templateFileName(dataType, format), format, buf.Bytes())
}

func templateFileName(dataType domain.DataType, format domain.FileFormat) string {
	return fmt.Sprintf("%s_template%s", dataType, format.Extension())
}

// writeAttachment отправляет файл на скачивание
func writeAttachment(w http.ResponseWriter, fileName string, format domain.FileFormat, data []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
