package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/SAP-F-2025/quizbank/internal/repositories"
	"github.com/SAP-F-2025/quizbank/internal/services"
	"github.com/SAP-F-2025/quizbank/internal/utils"
	"github.com/SAP-F-2025/quizbank/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *gin.Engine
	dir    string
	repo   repositories.TableRepository
}

func newTestEnv(t *testing.T, withBank bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewTableRepository(slogger)
	v := validator.New()
	dir := t.TempDir()

	var study services.StudyService
	if withBank {
		bankPath := filepath.Join(dir, "bank.xlsx")
		require.NoError(t, repo.WriteAll(context.Background(), bankPath, "", [][]any{
			{"题目", "选项", "答案"},
			{"单选题  1. 1+1=?", "单选题, A.1, B.2", "B"},
		}))
		bank, err := services.LoadQuestionBank(context.Background(), repo, slogger, bankPath, services.BankOptions{Threshold: 1})
		require.NoError(t, err)
		study = services.NewStudyService(bank, rand.New(rand.NewSource(1)), nil, slogger)
	}

	conversion := services.NewConversionService(repo, slogger, v, nil, "")
	hm := NewHandlerManager(services.NewServiceManager(conversion, study), v, utils.NewDiscardLogger())
	return &testEnv{
		router: NewRouter(hm, utils.NewDiscardLogger()),
		dir:    dir,
		repo:   repo,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w, decoded
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, false)
	w, body := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestConvertTabularEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	input := filepath.Join(env.dir, "raw.xlsx")
	require.NoError(t, env.repo.WriteAll(context.Background(), input, "", [][]any{
		{"题目", "选项A", "选项B", "答案"},
		{"天空的颜色", "蓝", "绿", "A"},
	}))

	w, body := env.do(t, http.MethodPost, "/api/v1/conversions/tabular", map[string]string{"input_path": input})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "tabular", data["strategy"])
	assert.EqualValues(t, 1, data["retained_rows"])

	output := filepath.Join(env.dir, "raw_格式1.xlsx")
	assert.Equal(t, output, data["output_path"])
	_, err := os.Stat(output)
	assert.NoError(t, err)
}

func TestConvertEndpointErrors(t *testing.T) {
	env := newTestEnv(t, false)

	noHeader := filepath.Join(env.dir, "noheader.xlsx")
	require.NoError(t, env.repo.WriteAll(context.Background(), noHeader, "", [][]any{
		{"foo", "bar"},
	}))

	tests := []struct {
		name   string
		route  string
		body   interface{}
		status int
	}{
		{"missing input", "/api/v1/conversions/tabular", map[string]string{"input_path": filepath.Join(env.dir, "nope.xlsx")}, http.StatusNotFound},
		{"unsupported extension", "/api/v1/conversions/embedded", map[string]string{"input_path": "questions.docx"}, http.StatusBadRequest},
		{"empty body", "/api/v1/conversions/tabular", map[string]string{}, http.StatusBadRequest},
		{"no header row", "/api/v1/conversions/tabular", map[string]string{"input_path": noHeader}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, http.MethodPost, tt.route, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestStudyFlow(t *testing.T) {
	env := newTestEnv(t, true)

	w, body := env.do(t, http.MethodGet, "/api/v1/study/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	next := body["data"].(map[string]interface{})
	assert.EqualValues(t, 0, next["index"])
	assert.NotContains(t, next, "answer")
	question := next["question"].(map[string]interface{})
	assert.Equal(t, "1+1=?", question["stem"])

	w, _ = env.do(t, http.MethodPost, "/api/v1/study/answers", map[string]interface{}{"index": 0, "answer": "xyz"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodPost, "/api/v1/study/answers", map[string]interface{}{"index": 0, "answer": "b"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	outcome := body["data"].(map[string]interface{})
	assert.Equal(t, true, outcome["correct"])
	assert.Equal(t, true, outcome["mastered"])
	assert.EqualValues(t, 0, outcome["remaining_count"])

	w, body = env.do(t, http.MethodGet, "/api/v1/study/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["data"].(map[string]interface{})["exhausted"])

	w, body = env.do(t, http.MethodPost, "/api/v1/study/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["data"].(map[string]interface{})["remaining"])
}

func TestSubmitAnswerUnknownIndex(t *testing.T) {
	env := newTestEnv(t, true)
	w, _ := env.do(t, http.MethodPost, "/api/v1/study/answers", map[string]interface{}{"index": 7, "answer": "A"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/v1/study/answers", map[string]interface{}{"answer": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudyRoutesWithoutBank(t *testing.T) {
	env := newTestEnv(t, false)
	for _, route := range []string{"/api/v1/study/next", "/api/v1/study/stats"} {
		w, body := env.do(t, http.MethodGet, route, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "No question bank loaded", body["message"])
	}
}
