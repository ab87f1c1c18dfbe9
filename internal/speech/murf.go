package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nugget/accountable/internal/config"
	"github.com/nugget/accountable/internal/httpkit"
)

// Murf synthesizes speech with the Murf generate API.
type Murf struct {
	baseURL    string
	voiceID    string
	format     string
	sampleRate int
	rate       int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewMurf builds a synthesizer from its settings.
func NewMurf(cfg config.MurfConfig, logger *slog.Logger) *Murf {
	if logger == nil {
		logger = slog.Default()
	}
	return &Murf{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		voiceID:    cfg.VoiceID,
		format:     cfg.Format,
		sampleRate: cfg.SampleRate,
		rate:       cfg.Rate,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(60*time.Second),
			httpkit.WithHeader("api-key", cfg.APIKey),
		),
		logger: logger,
	}
}

type generateRequest struct {
	VoiceID        string `json:"voiceId"`
	Text           string `json:"text"`
	Format         string `json:"format"`
	EncodeAsBase64 bool   `json:"encodeAsBase64"`
	Rate           int    `json:"rate"`
	SampleRate     int    `json:"sampleRate"`
}

type generateResponse struct {
	EncodedAudio  string  `json:"encodedAudio"`
	AudioLengthS  float64 `json:"audioLengthInSeconds"`
	RemainingChar int     `json:"remainingCharacterCount"`
}

// Synthesize returns the decoded audio for text.
func (m *Murf) Synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	audio, err := m.synthesize(ctx, text)
	observe("murf", start, err)
	return audio, err
}

func (m *Murf) synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(generateRequest{
		VoiceID:        m.voiceID,
		Text:           text,
		Format:         m.format,
		EncodeAsBase64: true,
		Rate:           m.rate,
		SampleRate:     m.sampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/speech/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("murf error %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 512))
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.EncodedAudio == "" {
		return nil, ErrNoAudio
	}
	audio, err := base64.StdEncoding.DecodeString(out.EncodedAudio)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}

	m.logger.Debug("speech synthesized",
		"chars", len(text),
		"seconds", out.AudioLengthS,
		"remaining_chars", out.RemainingChar,
	)
	return audio, nil
}
