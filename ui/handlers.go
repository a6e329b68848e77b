package ui

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"resultsdash/adapters/excel"
	"resultsdash/domain/core"
	"resultsdash/internal"
	"resultsdash/internal/errors"
	"resultsdash/internal/navigation"
)

type ctxKey int

const sessionKey ctxKey = iota

const cookieMaxAge = 365 * 24 * time.Hour

type urlRequest struct {
	URL string `json:"url"`
}

type clickRequest struct {
	Name string `json:"name"`
}

type sessionResponse struct {
	SessionID string              `json:"session_id"`
	Matched   *bool               `json:"matched,omitempty"`
	State     navigation.Snapshot `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.DefaultLogger.Warn("failed to encode response: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("%v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: errors.GetCode(err)})
}

// decode reads an optional JSON body into v
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return errors.InvalidInput("malformed request body: " + err.Error())
	}
	return nil
}

// cookieSession returns the session ID carried by the request cookie, or a new one
func (a *App) cookieSession(w http.ResponseWriter, r *http.Request) core.SessionID {
	if cookie, err := r.Cookie(a.config.SessionCookie); err == nil {
		if id, err := core.ParseSessionID(cookie.Value); err == nil {
			return id
		}
	}
	id := core.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     a.config.SessionCookie,
		Value:    id.String(),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// withSession resolves the {id} URL parameter to a live session
func (a *App) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := core.ParseSessionID(chi.URLParam(r, "id"))
		if err != nil {
			a.writeError(w, errors.InvalidInput(err.Error()))
			return
		}
		session, ok := a.sessions.Get(id)
		if !ok {
			a.writeError(w, errors.NotFound("session "+id.String()))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

func sessionFrom(r *http.Request) *navigation.Session {
	return r.Context().Value(sessionKey).(*navigation.Session)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	id := a.cookieSession(w, r)
	a.renderTemplate(w, "page.html", struct {
		SessionID string
	}{id.String()})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": a.sessions.Len(),
	})
}

// handleOpenSession creates the cookie's session, or resumes it after a reload. The body carries
// the page's current URL fragment.
func (a *App) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}

	id := a.cookieSession(w, r)
	session, created, err := a.sessions.Open(id)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var snap navigation.Snapshot
	switch {
	case created:
		snap, err = session.Start(r.Context(), req.URL)
	case req.URL != "":
		snap, _, err = session.Navigate(r.Context(), req.URL)
	default:
		snap, err = session.State(r.Context())
	}
	if err != nil {
		a.writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, sessionResponse{SessionID: id.String(), State: snap})
}

func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	snap, err := session.State(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID.String(), State: snap})
}

// handleNavigate applies a URL change, including back and forward. An unmatched URL is ignored
// and reported with matched=false.
func (a *App) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	session := sessionFrom(r)
	snap, matched, err := session.Navigate(r.Context(), req.URL)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID.String(), Matched: &matched, State: snap})
}

func (a *App) handleMapClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if req.Name == "" {
		a.writeError(w, errors.InvalidInput("name is required"))
		return
	}
	session := sessionFrom(r)
	snap, err := session.Click(r.Context(), req.Name)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sessionResponse{SessionID: session.ID.String(), State: snap})
}

func (a *App) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	snap, err := session.ClearFilter(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID.String(), State: snap})
}

func (a *App) handleSelectSubTab(w http.ResponseWriter, r *http.Request) {
	link := chi.URLParam(r, "link")
	session := sessionFrom(r)
	snap, found, err := session.SelectSubTab(r.Context(), link)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !found {
		a.writeError(w, errors.UnknownEntity("sub-tab", link))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: session.ID.String(), State: snap})
}

// handleExportIssues downloads the issue results as a workbook
func (a *App) handleExportIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := a.data.Issues(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	f, err := excel.BuildIssues(issues)
	if err != nil {
		a.writeError(w, errors.RenderFailure("issues workbook", err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="issues.xlsx"`)
	if _, err := f.WriteTo(w); err != nil {
		a.log.Warn("writing issues workbook: %v", err)
	}
}
