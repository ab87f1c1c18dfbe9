package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nugget/accountable/internal/config"
	"github.com/nugget/accountable/internal/httpkit"
)

// Deepgram transcribes audio with the Deepgram prerecorded API.
type Deepgram struct {
	baseURL    string
	model      string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDeepgram builds a transcriber from its settings.
func NewDeepgram(cfg config.DeepgramConfig, logger *slog.Logger) *Deepgram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deepgram{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		model:    cfg.Model,
		language: cfg.Language,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(60*time.Second),
			httpkit.WithHeader("Authorization", "Token "+cfg.APIKey),
		),
		logger: logger,
	}
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe returns the top transcript for audio. Recordings below
// MinAudioBytes fail with ErrAudioTooShort without a provider call, and
// a silent recording yields ErrNoSpeech.
func (d *Deepgram) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if len(audio) < MinAudioBytes {
		return "", ErrAudioTooShort
	}
	start := time.Now()
	text, err := d.transcribe(ctx, audio, contentType)
	observe("deepgram", start, err)
	return text, err
}

func (d *Deepgram) transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	q := url.Values{}
	q.Set("model", d.model)
	q.Set("language", d.language)
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/v1/listen?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if contentType == "" {
		contentType = "audio/webm"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepgram error %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 512))
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	var out listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return "", ErrNoSpeech
	}
	alt := out.Results.Channels[0].Alternatives[0]
	transcript := strings.TrimSpace(alt.Transcript)
	if transcript == "" {
		return "", ErrNoSpeech
	}

	d.logger.Debug("transcription complete",
		"bytes", len(audio),
		"confidence", alt.Confidence,
	)
	return transcript, nil
}
