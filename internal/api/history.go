package api

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/nugget/accountable/internal/store"
)

// sessionView is the listing shape the front end expects: sessions
// keyed by id, messages loaded on demand.
type sessionView struct {
	Messages  []store.ChatTurn `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	Title     string           `json:"title"`
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context(), s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	out := make(map[string]sessionView, len(sessions))
	for _, ss := range sessions {
		out[ss.ID] = sessionView{Messages: []store.ChatTurn{}, CreatedAt: ss.CreatedAt, Title: ss.Title}
	}
	s.ok(w, map[string]any{"sessions": out})
}

func (s *Server) handleHistoryNew(w http.ResponseWriter, r *http.Request) {
	id, err := s.assistant.NewSession(r.Context(), s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]string{"message": "New chat session created", "session_id": id})
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	turns, ok := s.sessionTurns(w, r)
	if !ok {
		return
	}
	s.ok(w, map[string]any{"session": sessionView{
		Messages:  turns,
		CreatedAt: turns[0].CreatedAt,
		Title:     store.SessionTitle(turns[0].Utterance),
	}})
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	uid, id := s.userID(r, ""), r.PathValue("session_id")
	if err := s.store.DeleteSession(r.Context(), uid, id); err != nil {
		s.storeError(w, err, "Session not found")
		return
	}
	if err := s.assistant.ForgetSession(r.Context(), uid, id); err != nil {
		s.logger.Warn("failed to reset current session", "session", id, "error", err)
	}
	s.message(w, "Chat session deleted successfully")
}

func (s *Server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	turns, ok := s.sessionTurns(w, r)
	if !ok {
		return
	}
	id := r.PathValue("session_id")
	md := sessionMarkdown(turns)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}

	switch format {
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"session-%s.md\"", shortID(id)))
		fmt.Fprint(w, md)

	case "html":
		page, err := markdownToHTML(store.SessionTitle(turns[0].Utterance), md)
		if err != nil {
			s.logger.Error("render session export", "session", id, "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "export failed")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"session-%s.html\"", shortID(id)))
		fmt.Fprint(w, page)

	default:
		s.errorResponse(w, http.StatusBadRequest, "unsupported format: "+format+" (use markdown or html)")
	}
}

// sessionTurns loads the turns of the path's session, writing a 404
// when it has none.
func (s *Server) sessionTurns(w http.ResponseWriter, r *http.Request) ([]store.ChatTurn, bool) {
	turns, err := s.store.SessionTurns(r.Context(), s.userID(r, ""), r.PathValue("session_id"))
	if err != nil {
		s.storeError(w, err, "")
		return nil, false
	}
	if len(turns) == 0 {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return turns, true
}

// sessionMarkdown renders a transcript as Markdown.
func sessionMarkdown(turns []store.ChatTurn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", store.SessionTitle(turns[0].Utterance))
	fmt.Fprintf(&b, "_Started %s_\n\n", turns[0].CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	for _, t := range turns {
		fmt.Fprintf(&b, "**You** (%s): %s\n\n", t.CreatedAt.UTC().Format("15:04"), t.Utterance)
		fmt.Fprintf(&b, "**Assistant**: %s\n\n", t.Reply)
	}
	return b.String()
}

// markdownToHTML renders md into a standalone HTML page with no
// external resources.
func markdownToHTML(title, md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: sans-serif; font-size: 14px; line-height: 1.5; max-width: 48em; margin: auto;">
%s
</body></html>`, html.EscapeString(title), buf.String()), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
