package dto

import "github.com/plastinin/schoolmigrate/internal/domain"

// TemplateResponse описание шаблона импорта
type TemplateResponse struct {
	DataType       string            `json:"data_type"`
	Title          string            `json:"title"`
	RequiredFields []string          `json:"required_fields"`
	OptionalFields []string          `json:"optional_fields"`
	SampleData     map[string]string `json:"sample_data"`
	KeyField       string            `json:"key_field,omitempty"`
}

// TemplateFromDomain конвертирует шаблон в DTO
func TemplateFromDomain(t *domain.Template) *TemplateResponse {
	return &TemplateResponse{
		DataType:       t.DataType.String(),
		Title:          t.DataType.Title(),
		RequiredFields: t.Required,
		OptionalFields: t.Optional,
		SampleData:     t.Sample,
		KeyField:       t.KeyField,
	}
}

// TemplateListResponse список шаблонов
type TemplateListResponse struct {
	Templates []*TemplateResponse `json:"templates"`
}

// TemplateListFromDomain конвертирует список шаблонов в DTO
func TemplateListFromDomain(templates []*domain.Template) *TemplateListResponse {
	out := make([]*TemplateResponse, len(templates))
	for i, t := range templates {
		out[i] = TemplateFromDomain(t)
	}
	return &TemplateListResponse{Templates: out}
}
