// Package vision talks to the remote multimodal model that performs the
// actual plant diagnosis. It owns outcome classification: every failure
// path surfaces as a typed *errors.AnalysisError, never a bare error.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leafscan/internal/catalog"
	"leafscan/internal/config"
	"leafscan/internal/diagnosis"
	apperrors "leafscan/internal/errors"
)

// Analyzer produces a validated diagnosis for an image in a target language
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, lang catalog.Language) (*diagnosis.Record, error)
}

// Client calls an OpenAI-compatible chat-completions endpoint.
//
// Guarantee: exactly one network call per Analyze. Retry policy belongs to
// the caller — retrying payment_required or configuration is never useful,
// and rate_limited needs caller-controlled backoff.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	httpc   *http.Client
}

// Low temperature leans the model toward deterministic, schema-shaped output
const analysisTemperature = 0.2

// NewClient creates an analysis client. An empty apiKey is allowed here and
// reported as a configuration failure at call time.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// NewClientFromConfig wires a client from process configuration
func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.AnalysisTimeout)
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Analyze submits the image and target language and returns a validated
// record or a typed failure
func (c *Client) Analyze(ctx context.Context, image []byte, lang catalog.Language) (*diagnosis.Record, error) {
	if c.apiKey == "" {
		return nil, apperrors.NewConfigurationError("analysis credential is not configured", nil)
	}
	if len(image) == 0 {
		return nil, apperrors.NewValidationError("image payload is empty", nil)
	}

	mime := sniffImageMIME(image)
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(lang)},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userDirective(lang)},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
		Temperature: analysisTemperature,
		MaxTokens:   2000,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal analysis request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build analysis request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError("analysis request failed", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to read analysis response", err.Error())
	}

	// Classify the raw HTTP outcome before touching the body as success
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.NewRateLimitedError("analysis service is rate limiting requests")
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, apperrors.NewPaymentRequiredError("analysis service requires billing action")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperrors.NewUpstreamError(
			fmt.Sprintf("analysis service returned status %d", resp.StatusCode),
			strings.TrimSpace(string(body)),
		)
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, apperrors.NewMalformedResponseError("analysis reply is not valid JSON", err)
	}
	if chat.Error.Message != "" {
		return nil, apperrors.NewUpstreamError("analysis service reported an error", chat.Error.Message)
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return nil, apperrors.NewEmptyResponseError("analysis reply carried no message content")
	}

	rec, err := diagnosis.Parse(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, apperrors.NewMalformedResponseError("could not extract a diagnosis from the reply", err)
	}
	return rec, nil
}
