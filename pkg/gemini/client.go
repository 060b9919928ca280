// Package gemini provides a client for the Google Gemini API, used for
// document field extraction and text similarity scoring.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rolocard/enrich-cli/internal/resilience"
)

// Client defines the Gemini operations used by the enrichment pipeline.
type Client interface {
	// GenerateJSON sends a prompt plus an inline document and returns the
	// model's JSON response body.
	GenerateJSON(ctx context.Context, prompt string, doc []byte, mimeType string) ([]byte, error)
	// Similarity embeds both texts and returns their cosine similarity
	// clamped to [0, 1].
	Similarity(ctx context.Context, a, b string) (float64, error)
	// WithKey returns a copy of the client authenticating with a
	// different API key, for per-user stored credentials.
	WithKey(apiKey string) Client
}

// Option configures the Gemini client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(c *httpClient) { c.model = model }
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) Option {
	return func(c *httpClient) { c.embeddingModel = model }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey         string
	baseURL        string
	model          string
	embeddingModel string
	http           *http.Client
}

// NewClient creates a Gemini API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:         apiKey,
		baseURL:        "https://generativelanguage.googleapis.com/v1beta",
		model:          "gemini-2.0-flash",
		embeddingModel: "text-embedding-004",
		http:           &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) WithKey(apiKey string) Client {
	derived := *c
	derived.apiKey = apiKey
	return &derived
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *httpClient) post(ctx context.Context, path string, reqBody, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return eris.Wrap(err, "gemini: marshal request")
	}

	body, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) ([]byte, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, eris.Wrap(reqErr, "gemini: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, doErr := c.http.Do(req)
		if doErr != nil {
			return nil, eris.Wrap(doErr, "gemini: request failed")
		}
		defer resp.Body.Close()

		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, eris.Wrap(readErr, "gemini: read response body")
		}

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("gemini: unexpected status %d: %s", resp.StatusCode, string(respBody))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}
		return respBody, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "gemini: unmarshal response")
	}
	return nil
}

func (c *httpClient) GenerateJSON(ctx context.Context, prompt string, doc []byte, mimeType string) ([]byte, error) {
	req := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(doc),
				}},
			},
		}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}

	var res generateResponse
	if err := c.post(ctx, "/models/"+c.model+":generateContent", req, &res); err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, eris.New("gemini: empty response")
	}
	return []byte(res.Candidates[0].Content.Parts[0].Text), nil
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type embedRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

func (c *httpClient) Similarity(ctx context.Context, a, b string) (float64, error) {
	model := "models/" + c.embeddingModel
	req := batchEmbedRequest{
		Requests: []embedRequest{
			{Model: model, Content: content{Parts: []part{{Text: a}}}},
			{Model: model, Content: content{Parts: []part{{Text: b}}}},
		},
	}

	var res batchEmbedResponse
	if err := c.post(ctx, "/models/"+c.embeddingModel+":batchEmbedContents", req, &res); err != nil {
		return 0, err
	}

	if len(res.Embeddings) < 2 {
		return 0, eris.Errorf("gemini: expected 2 embeddings, got %d", len(res.Embeddings))
	}

	sim, err := cosine(res.Embeddings[0].Values, res.Embeddings[1].Values)
	if err != nil {
		return 0, err
	}

	// Embedding cosine can be slightly negative for unrelated text; the
	// dedup contract wants [0, 1].
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim, nil
}

func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, eris.Errorf("gemini: embedding length mismatch (%d vs %d)", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
