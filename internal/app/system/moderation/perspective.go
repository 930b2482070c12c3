// internal/app/system/moderation/perspective.go
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"
)

const (
	// DefaultPerspectiveURL is the public comment analyzer endpoint.
	DefaultPerspectiveURL = "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"

	// DefaultToxicityThreshold marks text as toxic when any attribute scores above it.
	DefaultToxicityThreshold = 0.7

	// DefaultDetectorTimeout bounds one detector call.
	DefaultDetectorTimeout = 3 * time.Second
)

// PerspectiveAttributes are the attributes requested on every call.
var PerspectiveAttributes = []string{
	"TOXICITY",
	"SEVERE_TOXICITY",
	"IDENTITY_ATTACK",
	"INSULT",
	"PROFANITY",
	"THREAT",
	"SEXUALLY_EXPLICIT",
}

// Verdict is what an external detector concluded about a text.
type Verdict struct {
	Toxic     bool
	Attribute string // highest scoring attribute
	Score     float64
}

// Perspective calls a Perspective-style toxicity API.
type Perspective struct {
	APIKey    string
	URL       string
	Threshold float64
	Client    *http.Client
}

// NewPerspective returns a detector with the default endpoint, threshold and
// timeout filled in for zero values.
func NewPerspective(apiKey, endpoint string, timeout time.Duration) *Perspective {
	if endpoint == "" {
		endpoint = DefaultPerspectiveURL
	}
	if timeout <= 0 {
		timeout = DefaultDetectorTimeout
	}
	return &Perspective{
		APIKey:    apiKey,
		URL:       endpoint,
		Threshold: DefaultToxicityThreshold,
		Client:    &http.Client{Timeout: timeout},
	}
}

type perspectiveRequest struct {
	Comment struct {
		Text string `json:"text"`
	} `json:"comment"`
	Languages           []string            `json:"languages"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
}

type perspectiveResponse struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// Analyze scores text. Callers treat any error as "not toxic".
func (p *Perspective) Analyze(ctx context.Context, text string) (Verdict, error) {
	var body perspectiveRequest
	body.Comment.Text = text
	body.Languages = []string{"en"}
	body.RequestedAttributes = make(map[string]struct{}, len(PerspectiveAttributes))
	for _, a := range PerspectiveAttributes {
		body.RequestedAttributes[a] = struct{}{}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return Verdict{}, fmt.Errorf("encode request: %w", err)
	}

	u, err := url.Parse(p.URL)
	if err != nil {
		return Verdict{}, fmt.Errorf("parse detector url: %w", err)
	}
	q := u.Query()
	q.Set("key", p.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(raw))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultDetectorTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("detector call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Verdict{}, fmt.Errorf("detector status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out perspectiveResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return Verdict{}, fmt.Errorf("decode response: %w", err)
	}

	names := make([]string, 0, len(out.AttributeScores))
	for name := range out.AttributeScores {
		names = append(names, name)
	}
	sort.Strings(names)

	var v Verdict
	for _, name := range names {
		score := out.AttributeScores[name].SummaryScore.Value
		if score > v.Score {
			v.Score = score
			v.Attribute = name
		}
	}
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultToxicityThreshold
	}
	v.Toxic = v.Score > threshold
	return v, nil
}
