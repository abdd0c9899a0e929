package aimerge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// Document is the blueprint or quote handed to the analyzer.
type Document struct {
	ImageData    string `json:"imageData"` // base64 data URI
	DocumentType string `json:"documentType"`
}

// AnalyzedItem is one line item extracted from a document.
type AnalyzedItem struct {
	Name      string   `json:"name"`
	Quantity  float64  `json:"quantity"`
	Unit      string   `json:"unit"`
	UnitPrice *float64 `json:"unitPrice,omitempty"`
	Category  string   `json:"category"`
	Notes     string   `json:"notes,omitempty"`
}

// Analysis is the analyzer's answer.
type Analysis struct {
	Items       []AnalyzedItem `json:"items"`
	RawResponse string         `json:"rawResponse,omitempty"`
}

// Analyzer extracts line items from a document, optionally focused on the
// given price list categories.
type Analyzer interface {
	Analyze(ctx context.Context, doc Document, categories []string) (Analysis, error)
}

// AIRequestError reports a failed analyzer call. StatusCode is zero for
// transport and decoding failures.
type AIRequestError struct {
	StatusCode int
	Err        error
}

func (e *AIRequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", model.ErrAIRequest, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", model.ErrAIRequest, e.Err)
}

func (e *AIRequestError) Unwrap() error { return e.Err }

// Is makes every AIRequestError match model.ErrAIRequest.
func (e *AIRequestError) Is(target error) bool {
	return target == model.ErrAIRequest
}

// HTTPAnalyzer calls the document-analysis endpoint over HTTP.
type HTTPAnalyzer struct {
	URL    string
	Client *http.Client
}

// NewHTTPAnalyzer creates a client with the given request timeout.
func NewHTTPAnalyzer(url string, timeout time.Duration) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

type analyzeRequest struct {
	ImageData           string   `json:"imageData"`
	DocumentType        string   `json:"documentType"`
	PriceListCategories []string `json:"priceListCategories,omitempty"`
}

type analyzeResponse struct {
	Success     bool            `json:"success"`
	Items       json.RawMessage `json:"items"`
	RawResponse string          `json:"rawResponse"`
	Error       string          `json:"error"`
	Message     string          `json:"message"`
}

// Analyze posts the document and decodes the returned items.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, doc Document, categories []string) (Analysis, error) {
	payload, err := json.Marshal(analyzeRequest{
		ImageData:           doc.ImageData,
		DocumentType:        doc.DocumentType,
		PriceListCategories: categories,
	})
	if err != nil {
		return Analysis{}, &AIRequestError{Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(payload))
	if err != nil {
		return Analysis{}, &AIRequestError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Analysis{}, &AIRequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Analysis{}, &AIRequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Analysis{}, &AIRequestError{StatusCode: resp.StatusCode, Err: errors.New(errorMessage(body, resp.Status))}
	}

	analysis, err := ParseAnalysis(body)
	if err != nil {
		return Analysis{}, &AIRequestError{StatusCode: resp.StatusCode, Err: err}
	}
	return analysis, nil
}

// ParseAnalysis decodes an analyzer payload. It accepts the JSON envelope
// {items, rawResponse}, a bare item array, or an array wrapped in a markdown
// code fence. An envelope without items falls back to parsing rawResponse.
func ParseAnalysis(body []byte) (Analysis, error) {
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") {
		var env analyzeResponse
		if err := json.Unmarshal([]byte(text), &env); err != nil {
			return Analysis{}, fmt.Errorf("decoding response: %w", err)
		}
		raw := bytes.TrimSpace(env.Items)
		if len(raw) == 0 || string(raw) == "null" {
			if env.RawResponse == "" {
				return Analysis{}, errors.New("response has no items")
			}
			items, err := parseItems(env.RawResponse)
			if err != nil {
				return Analysis{}, err
			}
			return Analysis{Items: items, RawResponse: env.RawResponse}, nil
		}
		var items []AnalyzedItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return Analysis{}, fmt.Errorf("items is not an array: %w", err)
		}
		return Analysis{Items: items, RawResponse: env.RawResponse}, nil
	}

	items, err := parseItems(text)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Items: items, RawResponse: text}, nil
}

func parseItems(content string) ([]AnalyzedItem, error) {
	var items []AnalyzedItem
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &items); err != nil {
		return nil, fmt.Errorf("parsing items: %w", err)
	}
	return items, nil
}

// StripCodeFence removes a leading ```json or ``` fence and its closing ```.
func StripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(t, "```json"):
		t = strings.TrimPrefix(t, "```json")
	case strings.HasPrefix(t, "```"):
		t = strings.TrimPrefix(t, "```")
	default:
		return t
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

func errorMessage(body []byte, status string) string {
	var env analyzeResponse
	if json.Unmarshal(body, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return status
}
