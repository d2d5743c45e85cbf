package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"veas/site/internal/export"
	"veas/site/internal/relay"
	"veas/site/internal/search"
	"veas/site/internal/store"
)

const maxContactBody = 64 << 10

const (
	contactOK      = "Thank you for your message! We will get back to you shortly."
	contactInvalid = "Error: Please check the form fields."
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	static     http.Handler
	logger     *zap.Logger
}

// NewHTTPServer serves pages, the JSON API and, when staticDir is set, the
// image, video and stylesheet trees beneath it.
func NewHTTPServer(service *Service, corsOrigin, staticDir string, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HTTPServer{service: service, corsOrigin: corsOrigin, logger: logger.Named("http")}
	if staticDir != "" {
		s.static = http.FileServer(http.Dir(staticDir))
	}
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.handleAPI(w, r)
		return
	}

	if isStaticPath(r.URL.Path) {
		if s.static == nil || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
			s.notFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		s.static.ServeHTTP(w, r)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := splitPath(r.URL.Path)
	switch {
	case len(parts) == 0:
		s.servePage(w, r, "")
	case len(parts) == 1 && parts[0] == "contact":
		page, err := s.service.ContactPage(r.Context())
		s.writePage(w, r, http.StatusOK, page, err)
	case len(parts) == 1 && parts[0] == "services":
		http.Redirect(w, r, "/", http.StatusFound)
	case len(parts) == 2 && parts[0] == "services":
		s.servePage(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "services" && parts[2] == "brochure.pdf":
		s.handleBrochure(w, r, parts[1])
	default:
		s.notFound(w, r)
	}
}

func (s *HTTPServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.URL.Path == "/api/contact" {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST, OPTIONS")
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"success": false, "message": "Method Not Allowed"})
			return
		}
		s.handleContact(w, r)
		return
	}

	if r.URL.Path == "/api/search" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		s.handleSearch(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) servePage(w http.ResponseWriter, r *http.Request, slug string) {
	page, err := s.service.RenderPage(r.Context(), slug)
	if err == nil && page.Cached {
		w.Header().Set("X-Page-Cache", "hit")
	}
	s.writePage(w, r, http.StatusOK, page, err)
}

func (s *HTTPServer) notFound(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.NotFoundPage(r.Context())
	s.writePage(w, r, http.StatusNotFound, page, err)
}

func (s *HTTPServer) writePage(w http.ResponseWriter, r *http.Request, status int, page Page, err error) {
	if err != nil {
		s.logger.Error("page render failed",
			zap.String("request_id", requestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, page.Body)
}

func (s *HTTPServer) handleBrochure(w http.ResponseWriter, r *http.Request, slug string) {
	result, err := s.service.Brochure(r.Context(), slug)
	if err != nil {
		status, code, message, details := mapError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("brochure export failed", zap.String("slug", slug), zap.Error(err))
		}
		setJSONHeaders(w.Header())
		writeError(w, status, code, message, details)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)

	var sub relay.Submission
	err := decodeSubmission(r, &sub)
	var validationErr *relay.ValidationError
	if err != nil && !errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
		return
	}
	if err == nil {
		err = s.service.Submit(r.Context(), sub)
	}

	var domainErr *DomainError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": contactOK})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": contactInvalid,
			"errors":  validationErr.Fields,
		})
	case errors.As(err, &domainErr):
		writeJSON(w, domainErr.Status, map[string]any{"success": false, "message": domainErr.Message})
	default:
		s.logger.Error("contact submission failed",
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Server error",
			"error":   err.Error(),
		})
	}
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := search.Query{
		Text:       values.Get("q"),
		ServiceKey: values.Get("service"),
		Kind:       values.Get("kind"),
	}
	for name, target := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be an integer", nil)
			return
		}
		*target = n
	}
	writeJSON(w, http.StatusOK, s.service.Search(r.Context(), q))
}

// decodeSubmission accepts JSON as well as the urlencoded or multipart body
// the plain HTML form posts.
func decodeSubmission(r *http.Request, sub *relay.Submission) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxContactBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return fmt.Errorf("invalid form body")
		}
		*sub = relay.Submission{
			Name:           r.PostFormValue("name"),
			Company:        r.PostFormValue("company"),
			Email:          r.PostFormValue("email"),
			Telephone:      r.PostFormValue("telephone"),
			ProjectAddress: r.PostFormValue("projectAddress"),
			Message:        r.PostFormValue("message"),
			GDPRConsent:    r.PostFormValue("gdprConsent"),
		}
		return nil
	default:
		if err := json.NewDecoder(r.Body).Decode(sub); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field != "" {
				return relay.FieldError(typeErr.Field)
			}
			return fmt.Errorf("invalid JSON body")
		}
		return nil
	}
}

func isStaticPath(path string) bool {
	for _, prefix := range []string{"/images/", "/videos/", "/static/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			setCORSHeaders(writer.Header(), s.corsOrigin)
			setJSONHeaders(writer.Header())
		}
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", writer.status),
			zap.Int64("duration_ms", time.Since(started).Milliseconds()),
		)
	})
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
}

func setJSONHeaders(header http.Header) {
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, export.ErrContentUnavailable) {
		return http.StatusNotFound, "CONTENT_UNAVAILABLE", "Service has no content to export", nil
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
