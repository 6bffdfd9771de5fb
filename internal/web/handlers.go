// ===== internal/web/handlers.go =====
package web

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"autoauth/internal/logs"
	"autoauth/internal/scheduler"
	"autoauth/pkg/models"
)

// LogEntryJSON represents a log entry in JSON format
type LogEntryJSON struct {
	Timestamp string `json:"when"`
	UnixTime  int64  `json:"utime"`
	Message   string `json:"message"`
}

// PreviewJSON is the login URL that the next cycle would send
type PreviewJSON struct {
	scheduler.Resolved
	URL string `json:"url"`
}

// ErrorResponse is returned by failed API calls
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

var passwordParam = regexp.MustCompile(`(user_password=)[^&]*`)

// redactURL hides the password in a login URL
func redactURL(u string) string {
	return passwordParam.ReplaceAllString(u, "${1}******")
}

// handleStatusAPI returns the latest status event
func (s *Server) handleStatusAPI(w http.ResponseWriter, r *http.Request) {
	st := s.Status()
	st.LastURL = redactURL(st.LastURL)
	s.writeJSON(w, map[string]interface{}{"data": st})
}

// handleLogsAPI returns the log tail and the in-memory entries
func (s *Server) handleLogsAPI(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	maxBytes, _ := strconv.ParseInt(query.Get("bytes"), 10, 64)
	maxLines, _ := strconv.Atoi(query.Get("lines"))
	if maxBytes <= 0 {
		maxBytes = logs.DefaultMaxBytes
	}
	if maxLines <= 0 {
		maxLines = logs.DefaultMaxLines
	}

	entries := s.deps.Logs.Recent()
	jsonLogs := make([]LogEntryJSON, len(entries))
	for i, entry := range entries {
		jsonLogs[i] = LogEntryJSON{
			Timestamp: entry.Timestamp.Format(time.RFC3339),
			UnixTime:  entry.UnixTime,
			Message:   entry.Message,
		}
	}

	s.writeJSON(w, map[string]interface{}{"data": map[string]interface{}{
		"text":    s.deps.Logs.ReadLatest(maxBytes, maxLines),
		"entries": jsonLogs,
	}})
}

// handlePreviewAPI resolves addresses now and shows the resulting URL
func (s *Server) handlePreviewAPI(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{"data": s.preview()})
}

func (s *Server) preview() PreviewJSON {
	settings := s.deps.Settings
	resolved := scheduler.ResolveAddresses(settings.Override(), settings.PreferredInterface(), s.deps.Addresses)
	url := scheduler.LoginURL(s.deps.PortalURL, settings.Credentials(), resolved)
	return PreviewJSON{Resolved: resolved, URL: redactURL(url)}
}

// handleProbeAPI runs an immediate connectivity check
func (s *Server) handleProbeAPI(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		s.writeJSONError(w, "probe rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	result := s.deps.Prober.Probe(r.Context())
	zap.S().Debugf("On-demand probe: %s", result)
	s.writeJSON(w, map[string]interface{}{"data": map[string]string{
		"networkStatus": result.Label(),
	}})
}

// handleIndex renders the status page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if !s.templates.HasTemplate("status") {
		http.Error(w, "Status page unavailable, use /api/status", http.StatusServiceUnavailable)
		return
	}

	st := s.Status()
	st.LastURL = redactURL(st.LastURL)

	data := struct {
		Status  models.Status
		Preview PreviewJSON
		Logs    string
	}{
		Status:  st,
		Preview: s.preview(),
		Logs:    s.deps.Logs.ReadLatest(logs.DefaultMaxBytes/4, 50),
	}

	content, err := s.templates.Render("status", data)
	if err != nil {
		zap.S().Errorf("Failed to render status page: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(content))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorf("Failed to encode JSON: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: message})
}
