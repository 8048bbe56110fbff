package storage

import (
	"path"
	"time"

	"github.com/google/uuid"
)

// newFileKey генерирует уникальный ключ: year/month/day/uuid/filename
func newFileKey(fileName string) string {
	now := time.Now()
	return path.Join(
		now.Format("2006"),
		now.Format("01"),
		now.Format("02"),
		uuid.New().String(),
		path.Base(fileName),
	)
}
