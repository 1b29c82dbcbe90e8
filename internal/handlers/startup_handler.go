package handlers

import (
	"html/template"
	"net/http"
	"strings"
	"sync"
)

// Startup serves a progress page while the server initializes, then hands
// every request to the application handler.
type Startup struct {
	mu      sync.RWMutex
	ready   bool
	current string
	steps   []StartupStep
	handler http.Handler
}

type StartupStep struct {
	Name      string
	Completed bool
}

type startupView struct {
	Current  string
	Progress int
	Steps    []StartupStep
}

// NewStartup creates a startup tracker for the named steps
func NewStartup(steps ...string) *Startup {
	s := &Startup{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the step shown as in progress
func (s *Startup) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed
func (s *Startup) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
			break
		}
	}
}

// MarkReady starts routing requests to handler
func (s *Startup) MarkReady(handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	s.ready = true
	s.current = "Server ready"
	for i := range s.steps {
		s.steps[i].Completed = true
	}
}

// IsReady returns whether the server is fully initialized
func (s *Startup) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Progress returns the percentage of completed steps
func (s *Startup) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress()
}

func (s *Startup) progress() int {
	if len(s.steps) == 0 {
		if s.ready {
			return 100
		}
		return 0
	}
	completed := 0
	for _, step := range s.steps {
		if step.Completed {
			completed++
		}
	}
	return completed * 100 / len(s.steps)
}

func (s *Startup) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	if s.ready {
		handler := s.handler
		s.mu.RUnlock()
		handler.ServeHTTP(w, r)
		return
	}
	view := startupView{
		Current:  s.current,
		Progress: s.progress(),
		Steps:    append([]StartupStep(nil), s.steps...),
	}
	s.mu.RUnlock()

	w.Header().Set("Retry-After", "2")
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Server is starting, try again shortly"}`))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = startupPage.Execute(w, view)
}

var startupPage = template.Must(template.New("startup").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<meta http-equiv="refresh" content="2">
	<title>Parish Office - Starting up</title>
	<style>
		body { font-family: system-ui, sans-serif; background: #f4f1ea; display: flex; justify-content: center; padding: 60px 20px; }
		.container { background: white; border-radius: 8px; padding: 32px; max-width: 460px; width: 100%; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
		h1 { margin: 0 0 8px; font-size: 24px; }
		.progress-bar { height: 10px; background: #e5e0d5; border-radius: 5px; overflow: hidden; margin: 20px 0 8px; }
		.progress-fill { height: 100%; background: #6b4f2c; }
		ul { list-style: none; padding: 0; }
		li { padding: 6px 0; color: #777; }
		li.completed { color: #2f7d32; }
	</style>
</head>
<body>
	<div class="container">
		<h1>Parish Office</h1>
		<p>The server is starting up.</p>
		<div class="progress-bar"><div class="progress-fill" style="width: {{.Progress}}%"></div></div>
		<p>{{.Progress}}% complete</p>
		<ul>
			{{range .Steps}}<li class="{{if .Completed}}completed{{end}}">{{if .Completed}}&#10003;{{else}}&#9675;{{end}} {{.Name}}</li>{{end}}
		</ul>
		<p><em>{{.Current}}</em></p>
	</div>
</body>
</html>`))
