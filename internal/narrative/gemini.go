package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mtzanidakis/hacksim/internal/config"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultRetries        = 2
	defaultRetryBackoff   = 1500 * time.Millisecond
	defaultHTTPTimeout    = 2 * time.Minute
	maxErrorBodyBytes     = 64 * 1024
)

// Gemini calls the Generative Language REST API. Transport errors are
// retried a couple of times; everything that still fails is classified and
// returned as a *Failure.
type Gemini struct {
	endpoint     string
	model        string
	temperature  float64
	apiKey       string
	retries      int
	retryBackoff time.Duration
	client       *http.Client
}

func NewGemini(cfg config.NarrativeConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, failf(KindConfig, "initialise gemini client", fmt.Errorf("missing API key"))
	}
	if cfg.Model == "" {
		return nil, failf(KindConfig, "initialise gemini client", fmt.Errorf("missing model identifier"))
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	return &Gemini{
		endpoint:     endpoint,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		apiKey:       cfg.APIKey,
		retries:      defaultRetries,
		retryBackoff: defaultRetryBackoff,
		client:       &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

func (g *Gemini) Name() string {
	return "gemini"
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (g *Gemini) Generate(ctx context.Context, p Prompt) (Exchange, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: buildInstruction(p)}}}},
		GenerationConfig: geminiGenConfig{Temperature: g.temperature},
	})
	if err != nil {
		return Exchange{}, failf(KindMalformed, "marshal request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Exchange{}, failf(KindTransport, "generate", ctx.Err())
			case <-time.After(g.retryBackoff):
			}
		}

		exch, retryable, err := g.call(ctx, url, body)
		if err == nil {
			return exch, nil
		}
		if !retryable {
			return Exchange{}, err
		}
		lastErr = err
	}
	return Exchange{}, lastErr
}

func (g *Gemini) call(ctx context.Context, url string, body []byte) (Exchange, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Exchange{}, false, failf(KindTransport, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return Exchange{}, true, failf(KindTransport, "call gemini", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return Exchange{}, false, failf(KindAuth, "call gemini", err)
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return Exchange{}, true, failf(KindTransport, "call gemini", err)
		default:
			return Exchange{}, false, failf(KindTransport, "call gemini", err)
		}
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Exchange{}, false, failf(KindMalformed, "decode gemini response", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return Exchange{}, false, failf(KindMalformed, "decode gemini response", fmt.Errorf("no candidates returned"))
	}

	var text strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	exch, err := parseExchange(text.String(), decoded.UsageMetadata.TotalTokenCount)
	if err != nil {
		return Exchange{}, false, err
	}
	return exch, false, nil
}
