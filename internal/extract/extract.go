// Package extract turns uploaded documents into RawProfiles via an AI
// extraction service.
package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/pkg/anthropic"
	"github.com/rolocard/enrich-cli/pkg/gemini"
)

// ErrEmptyExtraction is returned when the extractor produced no usable
// fields. This is a hard failure: the run cannot proceed.
var ErrEmptyExtraction = eris.New("extract: no usable fields in document")

const extractionPrompt = `Extract contact information from the attached document (resume, CV, or business card).
Respond with a single JSON object using exactly these keys, omitting any the document does not contain:
name, email, phone, company, title, location, bio, website, github_url, linkedin_url, orcid_url,
skills (array of strings),
education (array of {institution, degree, field, years}),
experience (array of {company, title, years}).
Do not invent values. Respond with JSON only.`

// Extractor produces a RawProfile from one document.
type Extractor interface {
	Extract(ctx context.Context, doc model.Document) (*model.RawProfile, error)
}

// KeyedExtractor is an Extractor whose backing client can be rebound to
// a per-user stored credential for a single run.
type KeyedExtractor interface {
	Extractor
	WithKey(apiKey string) Extractor
}

// GeminiExtractor extracts via the Gemini API. It handles any mime type
// Gemini accepts inline (PDF, images, text).
type GeminiExtractor struct {
	client gemini.Client
}

// NewGeminiExtractor creates the primary document extractor.
func NewGeminiExtractor(client gemini.Client) *GeminiExtractor {
	return &GeminiExtractor{client: client}
}

// WithKey returns a copy of the extractor authenticating with apiKey.
func (e *GeminiExtractor) WithKey(apiKey string) Extractor {
	return &GeminiExtractor{client: e.client.WithKey(apiKey)}
}

func (e *GeminiExtractor) Extract(ctx context.Context, doc model.Document) (*model.RawProfile, error) {
	body, err := e.client.GenerateJSON(ctx, extractionPrompt, doc.Data, doc.MimeType)
	if err != nil {
		return nil, eris.Wrap(err, "extract: gemini")
	}
	return parseProfile(body)
}

// AnthropicExtractor extracts via the Anthropic Messages API. Text
// documents only.
type AnthropicExtractor struct {
	client anthropic.Client
}

// NewAnthropicExtractor creates the fallback document extractor.
func NewAnthropicExtractor(client anthropic.Client) *AnthropicExtractor {
	return &AnthropicExtractor{client: client}
}

func (e *AnthropicExtractor) Extract(ctx context.Context, doc model.Document) (*model.RawProfile, error) {
	if !strings.HasPrefix(doc.MimeType, "text/") && doc.MimeType != "application/json" {
		return nil, eris.Errorf("extract: anthropic extractor does not handle %s", doc.MimeType)
	}
	body, err := e.client.GenerateJSON(ctx, extractionPrompt, string(doc.Data))
	if err != nil {
		return nil, eris.Wrap(err, "extract: anthropic")
	}
	return parseProfile(body)
}

// parseProfile unmarshals extractor output and enforces the
// empty-output-is-failure contract.
func parseProfile(body []byte) (*model.RawProfile, error) {
	var raw model.RawProfile
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "extract: unparseable extractor output")
	}
	if isEmpty(raw) {
		return nil, ErrEmptyExtraction
	}
	return &raw, nil
}

func isEmpty(raw model.RawProfile) bool {
	return raw.Name == "" && raw.Email == "" && raw.Phone == "" &&
		raw.Company == "" && raw.Title == "" && len(raw.Skills) == 0
}
