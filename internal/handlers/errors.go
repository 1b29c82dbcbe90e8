package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

func respondWithError(w http.ResponseWriter, logger *zap.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Error(logMsg, zap.Error(err))
	}

	http.Error(w, userMsg, status)
}

// render executes a template into a buffer first so a failing template
// never leaves a half-written page behind.
func render(w http.ResponseWriter, templates *template.Template, logger *zap.Logger, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(w, logger, http.StatusInternalServerError, ErrInternalServerError, "Error rendering "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
