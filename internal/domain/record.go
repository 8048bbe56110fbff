package domain

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

// Record запись с ключами полей системы
type Record map[string]string

// Key возвращает значение ключевого поля шаблона
func (r Record) Key(tmpl *Template) string {
	if tmpl.KeyField == "" {
		return ""
	}
	return strings.TrimSpace(r[tmpl.KeyField])
}

// Validate проверяет запись по правилам шаблона и возвращает первую причину отказа.
// Пустая строка, если запись валидна.
func (r Record) Validate(tmpl *Template) string {
	for _, f := range tmpl.Required {
		if strings.TrimSpace(r[f]) == "" {
			return fmt.Sprintf("Missing required field '%s'", f)
		}
	}

	for _, f := range tmpl.Fields() {
		v := strings.TrimSpace(r[f])
		if v == "" {
			continue
		}
		if reason := checkKind(tmpl.Kind(f), v); reason != "" {
			return fmt.Sprintf("Invalid %s for field '%s': %q", reason, f, v)
		}
	}

	return ""
}

// Normalized возвращает копию записи с обрезанными пробелами
func (r Record) Normalized() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func checkKind(kind FieldKind, v string) string {
	switch kind {
	case FieldDate:
		if _, err := time.Parse(dateLayout, v); err != nil {
			return "date format"
		}
	case FieldNumber:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "number"
		}
	case FieldPhone:
		if !phonePattern.MatchString(strings.ReplaceAll(v, " ", "")) {
			return "phone number"
		}
	case FieldEmail:
		if addr, err := mail.ParseAddress(v); err != nil || addr.Address != v {
			return "email address"
		}
	}
	return ""
}
