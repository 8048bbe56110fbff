package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/plastinin/schoolmigrate/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

type templatesFile struct {
	Templates []templateEntry `yaml:"templates"`
}

type templateEntry struct {
	DataType   string            `yaml:"data_type"`
	Required   []string          `yaml:"required"`
	Optional   []string          `yaml:"optional"`
	KeyField   string            `yaml:"key_field"`
	StudentRef string            `yaml:"student_ref"`
	Kinds      map[string]string `yaml:"kinds"`
	Sample     map[string]string `yaml:"sample"`
}

// LoadTemplates загружает реестр шаблонов из файла или встроенного набора
func LoadTemplates(path string) (*domain.Registry, error) {
	data := defaultTemplates
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read templates file: %w", err)
		}
		data = b
	}

	return ParseTemplates(data)
}

// ParseTemplates разбирает YAML с шаблонами
func ParseTemplates(data []byte) (*domain.Registry, error) {
	var file templatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	templates := make([]domain.Template, 0, len(file.Templates))
	for _, e := range file.Templates {
		kinds := make(map[string]domain.FieldKind, len(e.Kinds))
		for f, k := range e.Kinds {
			kinds[f] = domain.FieldKind(k)
		}
		templates = append(templates, domain.Template{
			DataType:   domain.DataType(e.DataType),
			Required:   e.Required,
			Optional:   e.Optional,
			Sample:     e.Sample,
			Kinds:      kinds,
			KeyField:   e.KeyField,
			StudentRef: e.StudentRef,
		})
	}

	registry, err := domain.NewRegistry(templates)
	if err != nil {
		return nil, fmt.Errorf("failed to build template registry: %w", err)
	}

	return registry, nil
}
