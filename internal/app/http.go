package app

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"appealdesk/api/internal/signature"
	"appealdesk/api/internal/uploads"
	"appealdesk/api/internal/util"
)

const sessionCookie = "adsk_session"

// maxUploadMemory bounds the in-memory portion of a multipart attach.
const maxUploadMemory = 32 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	session := s.sessionKey(w, r)
	ctx := r.Context()
	parts := splitPath(r.URL.Path)

	if len(parts) >= 1 && parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/steps":
		writeJSON(w, http.StatusOK, map[string]any{"steps": s.service.Steps(ctx, session)})

	case r.Method == http.MethodGet && len(parts) == 3 && parts[1] == "steps":
		// Unknown names resolve to landing, mirroring the form's catch-all
		// route.
		writeJSON(w, http.StatusOK, map[string]any{"step": CanonicalStep(parts[2])})

	case r.Method == http.MethodGet && r.URL.Path == "/api/draft":
		writeJSON(w, http.StatusOK, s.service.Draft(ctx, session))

	case r.Method == http.MethodPatch && r.URL.Path == "/api/draft/appeal":
		var patch AppealPatch
		if err := decodeBody(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		view, err := s.service.UpdateAppeal(ctx, session, patch)
		s.respond(w, view, err)

	case r.Method == http.MethodPatch && len(parts) == 4 && parts[1] == "draft" && parts[2] == "contacts":
		var patch ContactPatch
		if err := decodeBody(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		view, err := s.service.UpdateContact(ctx, session, parts[3], patch)
		s.respond(w, view, err)

	case r.Method == http.MethodPut && r.URL.Path == "/api/draft/primary-contact":
		var body struct {
			Role string `json:"role"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		view, err := s.service.SetPrimaryContact(ctx, session, body.Role)
		s.respond(w, view, err)

	case r.Method == http.MethodPatch && r.URL.Path == "/api/draft/scheduling":
		var patch SchedulingPatch
		if err := decodeBody(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		view, err := s.service.UpdateScheduling(ctx, session, patch)
		s.respond(w, view, err)

	case r.Method == http.MethodPut && r.URL.Path == "/api/draft/signed-name":
		var body struct {
			SignedName string `json:"signedName"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, s.service.SetSignedName(ctx, session, body.SignedName))

	case r.Method == http.MethodGet && r.URL.Path == "/api/uploads":
		writeJSON(w, http.StatusOK, s.service.Draft(ctx, session))

	case r.Method == http.MethodPost && r.URL.Path == "/api/uploads":
		s.handleAttach(w, r, session)

	case r.Method == http.MethodDelete && len(parts) == 3 && parts[1] == "uploads":
		view, err := s.service.RemoveUpload(ctx, session, parts[2])
		s.respond(w, view, err)

	case r.Method == http.MethodGet && r.URL.Path == "/api/slots":
		slots, err := s.service.Slots(r.URL.Query().Get("date"))
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"slots": slots})

	case r.Method == http.MethodPost && r.URL.Path == "/api/signature/trace":
		var body struct {
			Events []signature.Event `json:"events"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, s.service.ApplySignatureTrace(ctx, session, body.Events))

	case r.Method == http.MethodPost && r.URL.Path == "/api/signature/clear":
		writeJSON(w, http.StatusOK, s.service.ClearSignature(ctx, session))

	case r.Method == http.MethodPost && r.URL.Path == "/api/submit":
		outcome, err := s.service.Submit(ctx, session)
		if err != nil {
			s.writeMappedError(w, err)
			return
		}
		switch {
		case outcome.InFlight:
			writeJSON(w, http.StatusAccepted, outcome)
		case outcome.Next == StepServiceDown, outcome.ErrorMessage != "" && outcome.Next == StepConfirmation:
			writeJSON(w, http.StatusBadGateway, outcome)
		default:
			writeJSON(w, http.StatusOK, outcome)
		}

	case r.Method == http.MethodPost && r.URL.Path == "/api/reset":
		view := s.service.Reset(ctx, session)
		writeJSON(w, http.StatusOK, map[string]any{"next": StepLanding, "draft": view.Draft})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// handleAttach accepts a multipart form with one or more "files" parts.
func (s *HTTPServer) handleAttach(w http.ResponseWriter, r *http.Request, session string) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_MULTIPART", "Could not parse upload form", nil)
		return
	}

	var incoming []uploads.Incoming
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "BAD_UPLOAD",
					fmt.Sprintf("Could not read %s", fh.Filename), nil)
				return
			}
			incoming = append(incoming, uploads.Incoming{
				Name:     fh.Filename,
				Size:     fh.Size,
				MimeType: fh.Header.Get("Content-Type"),
				Content:  f,
			})
		}
	}

	writeJSON(w, http.StatusOK, s.service.AddUploads(r.Context(), session, incoming))
}

// sessionKey returns the browser's draft key, minting a cookie on first
// contact. The key is the localStorage-namespace analog: one draft per
// browser.
func (s *HTTPServer) sessionKey(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	key := util.NewID("sess")
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}

func (s *HTTPServer) respond(w http.ResponseWriter, view DraftView, err error) {
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
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
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
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

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
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
	return http.StatusInternalServerError, "INTERNAL", "Internal error", nil
}
