package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/schoolmigrate/internal/adapter/tabular"
	"github.com/plastinin/schoolmigrate/internal/config"
	"github.com/plastinin/schoolmigrate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const studentsCSV = `name,birth_date,gender,admission_number,Grade
John Doe,2015-05-15,Male,SCH1,Grade 4
Jane Doe,2015-13-01,Female,SCH2,Grade 4
Jim Doe,2016-02-01,Male,SCH3,Grade 3
`

type wizardEnv struct {
	uc      *WizardUseCase
	storage *fakeStorage
	records *fakeRecords
	runs    *fakeRuns
	cleanup *fakeCleanup
}

func newWizardEnv(t *testing.T) *wizardEnv {
	t.Helper()
	registry, err := config.LoadTemplates("")
	require.NoError(t, err)

	env := &wizardEnv{
		storage: newFakeStorage(),
		records: newFakeRecords(),
		runs:    newFakeRuns(),
		cleanup: &fakeCleanup{},
	}
	log := zap.NewNop()
	env.uc = NewWizardUseCase(
		registry,
		newFakeSessions(),
		env.storage,
		tabular.NewReader(),
		tabular.NewTemplateWriter(),
		NewImportService(env.records, 10, log),
		env.runs,
		env.cleanup,
		WizardOptions{PreviewRows: 2, MaxUploadSize: 1 << 20, UploadRetention: time.Hour},
		log,
	)
	return env
}

func upload(name, content string) UploadInput {
	return UploadInput{FileName: name, FileSize: int64(len(content)), Reader: strings.NewReader(content)}
}

func TestWizardUseCaseFullFlow(t *testing.T) {
	env := newWizardEnv(t)
	ctx := context.Background()
	schoolID := uuid.New()

	s, err := env.uc.Open(ctx, schoolID)
	require.NoError(t, err)
	id := s.ID
	assert.Equal(t, domain.StageSelectType, s.Stage)

	s, err = env.uc.SelectType(ctx, id, domain.DataTypeStudents)
	require.NoError(t, err)
	assert.True(t, s.CanAdvance)

	var tmpl bytes.Buffer
	dt, err := env.uc.WriteSessionTemplate(ctx, id, &tmpl, domain.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, domain.DataTypeStudents, dt)
	assert.True(t, strings.HasPrefix(tmpl.String(), "name,birth_date,gender,admission_number,current_grade\n"))

	s, err = env.uc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageUploadFile, s.Stage)

	s, err = env.uc.Upload(ctx, id, upload("students.csv", studentsCSV))
	require.NoError(t, err)
	assert.Equal(t, "students.csv", s.FileName)
	assert.Equal(t, []string{"name", "birth_date", "gender", "admission_number", "Grade"}, s.Columns)
	assert.Len(t, s.Preview, 2)
	assert.True(t, s.CanAdvance)

	s, err = env.uc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageMapFields, s.Stage)

	s, err = env.uc.SetMapping(ctx, id, map[string]string{"Grade": "current_grade"})
	require.NoError(t, err)
	assert.Contains(t, s.Mapping, domain.MappingRow{Column: "Grade", Field: "current_grade"})

	s, err = env.uc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageReviewImport, s.Stage)
	require.NotNil(t, s.RecordCount)
	assert.Equal(t, 3, *s.RecordCount)
	assert.True(t, s.DryRun)

	s, err = env.uc.Import(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, s.Result)
	assert.Equal(t, 3, s.Result.Total)
	assert.Equal(t, 2, s.Result.Succeeded)
	assert.Equal(t, []domain.RowError{
		{Row: 3, Message: `Invalid date format for field 'birth_date': "2015-13-01"`},
	}, s.Result.Errors)
	assert.Zero(t, env.records.saveCalls)
	assert.True(t, s.CanFinish)

	s, err = env.uc.SetDryRun(ctx, id, false)
	require.NoError(t, err)
	s, err = env.uc.Import(ctx, id)
	require.NoError(t, err)
	assert.False(t, s.Result.DryRun)
	assert.Equal(t, 1, env.records.saveCalls)
	require.Len(t, env.records.saved, 2)
	assert.Equal(t, "Grade 4", env.records.saved[0].Record["current_grade"])

	history, err := env.runs.List(ctx, domain.ImportRunFilter{}, domain.NewPagination(1, 20))
	require.NoError(t, err)
	require.Len(t, history.Runs, 2)
	for _, run := range history.Runs {
		assert.Equal(t, domain.RunStatusCompleted, run.Status)
		assert.Equal(t, schoolID, run.SchoolID)
	}

	s, err = env.uc.Finish(ctx, id)
	require.NoError(t, err)
	assert.True(t, s.Finished)

	require.NoError(t, env.uc.Close(ctx, id))
	require.Len(t, env.cleanup.keys, 1)
	assert.Equal(t, time.Hour, env.cleanup.delays[0])

	_, err = env.uc.Get(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestWizardUseCaseUploadErrors(t *testing.T) {
	env := newWizardEnv(t)
	ctx := context.Background()

	s, err := env.uc.Open(ctx, uuid.New())
	require.NoError(t, err)
	id := s.ID

	_, err = env.uc.Upload(ctx, id, upload("students.csv", studentsCSV))
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "upload before selecting a type")

	_, err = env.uc.SelectType(ctx, id, domain.DataTypeStudents)
	require.NoError(t, err)
	_, err = env.uc.Next(ctx, id)
	require.NoError(t, err)

	s, err = env.uc.Upload(ctx, id, upload("students.csv", studentsCSV))
	require.NoError(t, err)
	firstKey := "1/students.csv"
	require.Equal(t, 1, env.storage.Len())

	t.Run("unsupported format discards previous file", func(t *testing.T) {
		s, err := env.uc.Upload(ctx, id, upload("students.ods", "binary"))
		assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
		assert.Empty(t, s.FileName)
		assert.False(t, s.CanAdvance)
		assert.Contains(t, env.cleanup.keys, firstKey)
	})

	t.Run("missing required columns", func(t *testing.T) {
		s, err := env.uc.Upload(ctx, id, upload("students.csv", "name,gender\nJohn,Male\n"))
		require.Error(t, err)

		var missing *domain.MissingFieldsError
		require.True(t, errors.As(err, &missing))
		assert.ElementsMatch(t, []string{"birth_date", "admission_number"}, missing.Fields)
		assert.False(t, s.CanAdvance)
		assert.Equal(t, 1, env.storage.Len(), "rejected file is not stored")
	})

	t.Run("unreadable file", func(t *testing.T) {
		_, err := env.uc.Upload(ctx, id, upload("students.xlsx", "not a workbook"))
		assert.True(t, errors.Is(err, domain.ErrUnreadableFile))
		assert.True(t, domain.IsUserError(err))

		_, err = env.uc.Upload(ctx, id, upload("students.xls", "not a workbook"))
		assert.True(t, errors.Is(err, domain.ErrUnreadableFile))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := env.uc.Upload(ctx, id, upload("students.csv", ""))
		assert.True(t, errors.Is(err, domain.ErrEmptyFile))
	})
}

func TestWizardUseCaseStorageFailureDiscardsPreviousFile(t *testing.T) {
	env := newWizardEnv(t)
	ctx := context.Background()

	s, err := env.uc.Open(ctx, uuid.New())
	require.NoError(t, err)
	id := s.ID

	_, err = env.uc.SelectType(ctx, id, domain.DataTypeStudents)
	require.NoError(t, err)
	_, err = env.uc.Next(ctx, id)
	require.NoError(t, err)
	_, err = env.uc.Upload(ctx, id, upload("students.csv", studentsCSV))
	require.NoError(t, err)

	env.storage.uploadErr = errors.New("bucket unavailable")
	s, err = env.uc.Upload(ctx, id, upload("students.csv", studentsCSV))
	require.Error(t, err)
	assert.False(t, domain.IsUserError(err))
	assert.Empty(t, s.FileName)
	assert.False(t, s.CanAdvance)
	assert.Equal(t, []string{"1/students.csv"}, env.cleanup.keys)
}

func TestWizardUseCaseSetMappingIsAtomic(t *testing.T) {
	env := newWizardEnv(t)
	ctx := context.Background()

	s, err := env.uc.Open(ctx, uuid.New())
	require.NoError(t, err)
	id := s.ID

	_, err = env.uc.SelectType(ctx, id, domain.DataTypeStudents)
	require.NoError(t, err)
	_, err = env.uc.Next(ctx, id)
	require.NoError(t, err)
	_, err = env.uc.Upload(ctx, id, upload("students.csv", studentsCSV))
	require.NoError(t, err)
	before, err := env.uc.Next(ctx, id)
	require.NoError(t, err)

	s, err = env.uc.SetMapping(ctx, id, map[string]string{
		"Grade": "current_grade",
		"name":  "bogus",
	})
	assert.True(t, errors.Is(err, domain.ErrUnknownField))
	assert.Equal(t, before.Mapping, s.Mapping)
	assert.NotContains(t, s.Mapping, domain.MappingRow{Column: "Grade", Field: "current_grade"})

	s, err = env.uc.SetMapping(ctx, id, map[string]string{
		"Grade":   "current_grade",
		"Missing": "name",
	})
	assert.True(t, errors.Is(err, domain.ErrUnknownColumn))
	assert.Equal(t, before.Mapping, s.Mapping)

	s, err = env.uc.SetMapping(ctx, id, map[string]string{"Grade": "current_grade"})
	require.NoError(t, err)
	assert.Contains(t, s.Mapping, domain.MappingRow{Column: "Grade", Field: "current_grade"})
}

func TestWizardUseCaseChangeTypeDiscardsFile(t *testing.T) {
	env := newWizardEnv(t)
	ctx := context.Background()

	s, err := env.uc.Open(ctx, uuid.New())
	require.NoError(t, err)
	id := s.ID

	_, err = env.uc.SelectType(ctx, id, domain.DataTypeStudents)
	require.NoError(t, err)
	_, err = env.uc.Next(ctx, id)
	require.NoError(t, err)
	_, err = env.uc.Upload(ctx, id, upload("students.csv", studentsCSV))
	require.NoError(t, err)

	_, err = env.uc.Back(ctx, id)
	require.NoError(t, err)
	s, err = env.uc.SelectType(ctx, id, domain.DataTypeStudents)
	require.NoError(t, err)
	assert.Equal(t, "students.csv", s.FileName, "same type keeps the file")

	s, err = env.uc.SelectType(ctx, id, domain.DataTypeTeachers)
	require.NoError(t, err)
	assert.Empty(t, s.FileName)
	assert.Len(t, env.cleanup.keys, 1)
}

func TestWizardUseCaseRecordCountUnavailable(t *testing.T) {
	env := newWizardEnv(t)
	ctx := context.Background()

	s, err := env.uc.Open(ctx, uuid.New())
	require.NoError(t, err)
	id := s.ID

	_, err = env.uc.SelectType(ctx, id, domain.DataTypeStudents)
	require.NoError(t, err)
	_, err = env.uc.Next(ctx, id)
	require.NoError(t, err)
	_, err = env.uc.Upload(ctx, id, upload("students.csv", studentsCSV))
	require.NoError(t, err)
	_, err = env.uc.Next(ctx, id)
	require.NoError(t, err)

	// файл пропал из хранилища
	env.storage.files = map[string][]byte{}

	s, err = env.uc.Next(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageReviewImport, s.Stage)
	assert.Nil(t, s.RecordCount)
	assert.Equal(t, "Unknown", s.RecordCountLabel())

	_, err = env.uc.Import(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrUnreadableFile))

	history, err := env.runs.List(ctx, domain.ImportRunFilter{}, domain.NewPagination(1, 20))
	require.NoError(t, err)
	require.Len(t, history.Runs, 1)
	assert.Equal(t, domain.RunStatusFailed, history.Runs[0].Status)
}

func TestWizardUseCaseExpireIdle(t *testing.T) {
	env := newWizardEnv(t)
	ctx := context.Background()

	_, err := env.uc.Open(ctx, uuid.New())
	require.NoError(t, err)

	n, err := env.uc.ExpireIdle(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = env.uc.ExpireIdle(ctx, -time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWizardUseCaseWriteTemplate(t *testing.T) {
	env := newWizardEnv(t)

	var buf bytes.Buffer
	err := env.uc.WriteTemplate(&buf, "library", domain.FormatCSV)
	assert.True(t, errors.Is(err, domain.ErrUnknownDataType))

	require.NoError(t, env.uc.WriteTemplate(&buf, domain.DataTypeParents, domain.FormatCSV))
	assert.True(t, strings.HasPrefix(buf.String(), "student_admission,name,phone,relationship,email\n"))
	assert.Len(t, env.uc.Templates(), 5)
}
