package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, zap.NewNop(), 418, "Teapot", "", nil)

	assert.Equal(t, 418, recorder.Code)
	assert.Equal(t, "Teapot", strings.TrimSpace(recorder.Body.String()))
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	recorder := httptest.NewRecorder()

	respondWithError(recorder, zap.New(core), 500, "Internal server error", "", errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Internal server error", entry.Message)
	assert.Equal(t, "boom", entry.ContextMap()["error"])
}

func TestRenderFailureDoesNotLeakPartialPage(t *testing.T) {
	tmpl := template.Must(template.New("page.tmpl").Parse(`<p>before</p>{{.Missing.Field}}`))
	recorder := httptest.NewRecorder()

	render(recorder, tmpl, zap.NewNop(), http.StatusOK, "page.tmpl", struct{}{})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "before")
}
