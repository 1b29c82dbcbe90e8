package api

import (
	_ "embed"
	"net/http"

	swgui "github.com/swaggest/swgui/v5cdn"
)

//go:embed openapi.yaml
var openapi []byte

func docsHandler() http.Handler {
	return swgui.New("Parish Records API", BasePath+"/docs/openapi.yaml", BasePath+"/docs/")
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openapi)
}
