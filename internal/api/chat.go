package api

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/nugget/accountable/internal/speech"
)

// ChatRequest is the body of POST /api/chat and of each websocket frame.
type ChatRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.errorResponse(w, http.StatusBadRequest, "text is required")
		return
	}

	reply, err := s.assistant.ClassifyAndRespond(r.Context(), s.userID(r, req.UserID), req.Text)
	if err != nil {
		s.logger.Error("chat failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to record chat")
		return
	}
	s.ok(w, ChatResponse{Response: reply})
}

// wsFrame is a server-to-client websocket message. Exactly one of
// Response and Error is set.
type wsFrame struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleChatWS serves a websocket where each client frame is a
// ChatRequest and each server frame answers it in order.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	user := s.userID(r, "")
	ctx := r.Context()
	s.logger.Debug("websocket chat opened", "user", user)

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket chat closed", "user", user)
				return
			}
			s.logger.Debug("websocket read error", "user", user, "error", err)
			return
		}

		var frame wsFrame
		switch {
		case strings.TrimSpace(req.Text) == "":
			frame.Error = "text is required"
		default:
			uid := user
			if req.UserID != "" {
				uid = req.UserID
			}
			reply, err := s.assistant.ClassifyAndRespond(ctx, uid, req.Text)
			if err != nil {
				s.logger.Error("websocket chat failed", "user", uid, "error", err)
				frame.Error = "failed to record chat"
			} else {
				frame.Response = reply
			}
		}

		if err := conn.WriteJSON(frame); err != nil {
			s.logger.Debug("websocket write error", "user", user, "error", err)
			return
		}
	}
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.errorResponse(w, http.StatusBadRequest, "text is required")
		return
	}
	if s.synthesizer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "text-to-speech is not configured")
		return
	}

	audio, err := s.synthesizer.Synthesize(r.Context(), req.Text)
	if err != nil {
		s.logger.Warn("text-to-speech failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "TTS failed")
		return
	}
	s.ok(w, map[string]string{"audio": base64.StdEncoding.EncodeToString(audio)})
}

func (s *Server) handleSTT(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "could not read audio")
		return
	}
	if len(audio) < speech.MinAudioBytes {
		s.errorResponse(w, http.StatusBadRequest, "Audio file too small - please record longer")
		return
	}
	if s.transcriber == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "speech-to-text is not configured")
		return
	}

	transcript, err := s.transcriber.Transcribe(r.Context(), audio, header.Header.Get("Content-Type"))
	switch {
	case errors.Is(err, speech.ErrNoSpeech):
		s.errorResponse(w, http.StatusBadRequest, "No speech detected - please speak more clearly")
	case errors.Is(err, speech.ErrAudioTooShort):
		s.errorResponse(w, http.StatusBadRequest, "Audio file too small - please record longer")
	case err != nil:
		s.logger.Warn("speech-to-text failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "STT failed")
	default:
		s.ok(w, map[string]string{"transcript": transcript})
	}
}

func (s *Server) handleProactiveCheck(w http.ResponseWriter, r *http.Request) {
	prompt, err := s.assistant.ProactiveCheck(r.Context(), s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	var msg *string
	if prompt != "" {
		msg = &prompt
	}
	s.ok(w, map[string]*string{"message": msg})
}
