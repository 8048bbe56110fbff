package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	httpapi "github.com/plastinin/schoolmigrate/internal/adapter/http"
	"github.com/plastinin/schoolmigrate/internal/adapter/http/dto"
	"github.com/plastinin/schoolmigrate/internal/adapter/http/handler"
	"github.com/plastinin/schoolmigrate/internal/adapter/repository"
	"github.com/plastinin/schoolmigrate/internal/adapter/storage"
	"github.com/plastinin/schoolmigrate/internal/adapter/tabular"
	"github.com/plastinin/schoolmigrate/internal/config"
	"github.com/plastinin/schoolmigrate/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const parentsCSV = "student_admission,Parent Name,phone,relationship,email\n" +
	"SCH1,Mary Doe,254712345678,Mother,mary@example.com\n" +
	"SCH404,John Roe,254712345679,Father,\n"

type testServer struct {
	*httptest.Server
	records *repository.MemoryRecordStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	registry, err := config.LoadTemplates("")
	require.NoError(t, err)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	log := zap.NewNop()
	records := repository.NewMemoryRecordStore()
	runs := repository.NewMemoryImportRunRepository()

	wizardUC := usecase.NewWizardUseCase(
		registry,
		repository.NewSessionStore(),
		files,
		tabular.NewReader(),
		tabular.NewTemplateWriter(),
		usecase.NewImportService(records, 10, log),
		runs,
		nil,
		usecase.WizardOptions{PreviewRows: 5, MaxUploadSize: 1 << 20, UploadRetention: time.Hour},
		log,
	)

	router := httpapi.NewRouter(
		handler.NewSessionHandler(wizardUC, 1<<20, 10, log),
		handler.NewTemplateHandler(wizardUC, log),
		handler.NewImportRunHandler(usecase.NewImportRunUseCase(runs), log),
		handler.NewHealthHandler(),
		0,
		log,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, records: records}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) upload(t *testing.T, path, fileName, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := s.Client().Post(s.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSessionHandlerWizardFlow(t *testing.T) {
	srv := newTestServer(t)
	schoolID := uuid.New()

	resp := srv.do(t, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{SchoolID: schoolID.String()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	session := decode[dto.SessionResponse](t, resp)
	assert.Equal(t, "select_type", session.StageName)
	assert.True(t, session.DryRun)
	base := "/api/v1/sessions/" + session.ID

	resp = srv.do(t, http.MethodPost, base+"/next", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodPut, base+"/type", dto.SelectTypeRequest{DataType: "parents"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session = decode[dto.SessionResponse](t, resp)
	assert.Equal(t, []string{"student_admission", "name", "phone", "relationship", "email"}, session.Fields)

	resp = srv.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.upload(t, base+"/file", "parents.csv", parentsCSV)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "name column is missing")
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "missing_fields", errResp.Error)
	assert.Equal(t, []string{"name"}, errResp.Fields)
	assert.NotEmpty(t, errResp.Hint)

	withName := strings.Replace(parentsCSV, "Parent Name", "name", 1)
	withName = strings.Replace(withName, "student_admission,name", "student_admission,name,Notes", 1)
	withName = strings.ReplaceAll(withName, "Doe,", "Doe,a very long note that will not fit,")
	withName = strings.ReplaceAll(withName, "Roe,", "Roe,,")

	resp = srv.upload(t, base+"/file", "parents.csv", withName)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session = decode[dto.SessionResponse](t, resp)
	assert.Equal(t, "parents.csv", session.FileName)
	require.Len(t, session.Preview, 2)
	assert.Equal(t, "a very lon", session.Preview[0]["Notes"])

	resp = srv.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPut, base+"/mapping", dto.MappingRequest{Mapping: map[string]string{"Notes": "grade"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown_field", decode[dto.ErrorResponse](t, resp).Error)

	resp = srv.do(t, http.MethodPut, base+"/mapping", dto.MappingRequest{Mapping: map[string]string{"name": ""}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = srv.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp = decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "unmapped_required_fields", errResp.Error)
	assert.Equal(t, []string{"name"}, errResp.Fields)

	resp = srv.do(t, http.MethodPut, base+"/mapping", dto.MappingRequest{Mapping: map[string]string{"name": "name"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = srv.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session = decode[dto.SessionResponse](t, resp)
	assert.Equal(t, "review_import", session.StageName)
	assert.Equal(t, "2", session.RecordCount)
	assert.False(t, session.CanFinish)

	resp = srv.do(t, http.MethodPost, base+"/finish", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodPut, base+"/dry-run", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, base+"/import", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session = decode[dto.SessionResponse](t, resp)
	require.NotNil(t, session.Result)
	assert.True(t, session.Result.DryRun)
	assert.Equal(t, 2, session.Result.Failed, "no students are stored yet")
	assert.Equal(t, "Student with admission number 'SCH1' not found", session.Result.Errors[0].Message)
	assert.True(t, session.CanFinish)

	resp = srv.do(t, http.MethodGet, "/api/v1/imports?school_id="+schoolID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[dto.ImportRunListResponse](t, resp)
	require.Len(t, history.Runs, 1)
	assert.Equal(t, "completed", history.Runs[0].Status)

	resp = srv.do(t, http.MethodGet, "/api/v1/imports/"+history.Runs[0].ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, base+"/finish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.SessionResponse](t, resp).Finished)

	resp = srv.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionHandlerBadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"invalid school id", http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{SchoolID: "school"}, http.StatusBadRequest, "invalid_school_id"},
		{"invalid session id", http.MethodGet, "/api/v1/sessions/abc", nil, http.StatusBadRequest, "invalid_id"},
		{"unknown session", http.MethodPost, "/api/v1/sessions/" + uuid.NewString() + "/next", nil, http.StatusNotFound, "not_found"},
		{"unknown import run", http.MethodGet, "/api/v1/imports/" + uuid.NewString(), nil, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decode[dto.ErrorResponse](t, resp).Error)
		})
	}
}

func TestSessionHandlerUnsupportedFormat(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{SchoolID: uuid.NewString()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	base := "/api/v1/sessions/" + decode[dto.SessionResponse](t, resp).ID

	srv.do(t, http.MethodPut, base+"/type", dto.SelectTypeRequest{DataType: "students"})
	srv.do(t, http.MethodPost, base+"/next", nil)

	resp = srv.upload(t, base+"/file", "students.ods", "binary")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "unsupported_format", errResp.Error)
	assert.Equal(t, "upload a .csv, .xlsx or .xls file", errResp.Hint)
}
