package domain

import "github.com/google/uuid"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination параметры пагинации
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination создаёт параметры пагинации с валидацией
func NewPagination(page, pageSize int) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{
		Page:     page,
		PageSize: pageSize,
	}
}

// Offset возвращает смещение для SQL запроса
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit возвращает лимит для SQL запроса
func (p Pagination) Limit() int {
	return p.PageSize
}

// ImportRunFilter фильтры для истории импорта
type ImportRunFilter struct {
	DataType *DataType  `json:"data_type,omitempty"`
	SchoolID *uuid.UUID `json:"school_id,omitempty"`
}

// ImportRunListResult результат запроса истории импорта
type ImportRunListResult struct {
	Runs       []*ImportRun `json:"runs"`
	Total      int          `json:"total"`
	Pagination Pagination   `json:"pagination"`
}

// TotalPages количество страниц
func (r *ImportRunListResult) TotalPages() int {
	pages := r.Total / r.Pagination.PageSize
	if r.Total%r.Pagination.PageSize > 0 {
		pages++
	}
	return pages
}
