package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nugget/accountable/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDeepgram(t *testing.T, handler http.HandlerFunc) *Deepgram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.Default().Speech.Deepgram
	cfg.BaseURL = srv.URL
	cfg.APIKey = "dg-key"
	return NewDeepgram(cfg, discardLogger())
}

func TestDeepgram_Transcribe(t *testing.T) {
	audio := bytes.Repeat([]byte{0x1a}, 2048)
	d := newDeepgram(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listen" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("model") != "nova-2" || q.Get("language") != "en-US" || q.Get("smart_format") != "true" {
			t.Errorf("query = %v", q)
		}
		if got := r.Header.Get("Authorization"); got != "Token dg-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/ogg" {
			t.Errorf("Content-Type = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) != len(audio) {
			t.Errorf("body length = %d", len(body))
		}
		io.WriteString(w, `{"results":{"channels":[{"alternatives":[{"transcript":" add milk to my tasks ","confidence":0.97}]}]}}`)
	})

	got, err := d.Transcribe(context.Background(), audio, "audio/ogg")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "add milk to my tasks" {
		t.Errorf("transcript = %q", got)
	}
}

func TestDeepgram_TooShort(t *testing.T) {
	d := newDeepgram(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called for short audio")
	})
	if _, err := d.Transcribe(context.Background(), make([]byte, MinAudioBytes-1), ""); !errors.Is(err, ErrAudioTooShort) {
		t.Errorf("err = %v, want ErrAudioTooShort", err)
	}
}

func TestDeepgram_NoSpeech(t *testing.T) {
	for _, body := range []string{
		`{"results":{"channels":[]}}`,
		`{"results":{"channels":[{"alternatives":[{"transcript":"   "}]}]}}`,
	} {
		d := newDeepgram(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})
		_, err := d.Transcribe(context.Background(), make([]byte, MinAudioBytes), "")
		if !errors.Is(err, ErrNoSpeech) {
			t.Errorf("body %s: err = %v, want ErrNoSpeech", body, err)
		}
	}
}

func TestDeepgram_ProviderError(t *testing.T) {
	d := newDeepgram(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusPaymentRequired)
	})
	_, err := d.Transcribe(context.Background(), make([]byte, MinAudioBytes), "")
	if err == nil || errors.Is(err, ErrNoSpeech) {
		t.Errorf("err = %v, want provider error", err)
	}
}

func TestMurf_Synthesize(t *testing.T) {
	want := []byte("RIFF....WAVEfmt ")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/speech/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("api-key"); got != "murf-key" {
			t.Errorf("api-key = %q", got)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if req.VoiceID != "en-US-ken" || !req.EncodeAsBase64 || req.SampleRate != 24000 || req.Text != "Great job!" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"encodedAudio":         base64.StdEncoding.EncodeToString(want),
			"audioLengthInSeconds": 1.2,
		})
	}))
	defer srv.Close()

	cfg := config.Default().Speech.Murf
	cfg.BaseURL = srv.URL
	cfg.APIKey = "murf-key"
	m := NewMurf(cfg, discardLogger())

	got, err := m.Synthesize(context.Background(), "Great job!")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("audio = %q, want %q", got, want)
	}
}

func TestMurf_NoAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"audioFile":"https://example.invalid/a.wav"}`)
	}))
	defer srv.Close()

	cfg := config.Default().Speech.Murf
	cfg.BaseURL = srv.URL
	if _, err := NewMurf(cfg, discardLogger()).Synthesize(context.Background(), "hi"); !errors.Is(err, ErrNoAudio) {
		t.Errorf("err = %v, want ErrNoAudio", err)
	}
}
