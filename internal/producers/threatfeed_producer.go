package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"shrike/internal/domain"
)

const maxFeedResponseBytes = 1 << 20

// ThreatFeedProducer queries an external threat-intelligence lookup endpoint
// for the scan host and converts the hit count into an opinion.
type ThreatFeedProducer struct {
	name     string
	endpoint string
	client   *http.Client
}

func NewThreatFeedProducer(name, endpoint string) (*ThreatFeedProducer, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("producers: threat feed endpoint not configured")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("producers: invalid threat feed endpoint %q: %w", endpoint, err)
	}

	return &ThreatFeedProducer{
		name:     name,
		endpoint: endpoint,
		client:   &http.Client{},
	}, nil
}

func (p *ThreatFeedProducer) Name() string {
	return p.name
}

type feedResponse struct {
	Hits    int      `json:"hits"`
	Sources []string `json:"sources"`
	Score   float64  `json:"score"`
}

func (p *ThreatFeedProducer) Analyze(ctx context.Context, scan domain.ScanContext) (domain.SignalOpinion, error) {
	lookupURL := fmt.Sprintf("%s?host=%s", p.endpoint, url.QueryEscape(scan.Host))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return domain.SignalOpinion{}, fmt.Errorf("producers: build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.SignalOpinion{}, fmt.Errorf("producers: feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SignalOpinion{}, fmt.Errorf("producers: feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedResponseBytes))
	if err != nil {
		return domain.SignalOpinion{}, fmt.Errorf("producers: read feed response: %w", err)
	}

	var feed feedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return domain.SignalOpinion{}, fmt.Errorf("producers: malformed feed response: %w", err)
	}

	return feedOpinion(p.name, feed), nil
}

func feedOpinion(producer string, feed feedResponse) domain.SignalOpinion {
	opinion := domain.SignalOpinion{
		Producer:   producer,
		RiskScore:  feed.Score,
		KeyFactors: feed.Sources,
	}

	switch {
	case feed.Hits >= 3:
		opinion.Multiplier = 1.25
		opinion.Confidence = 95
		opinion.Rationale = fmt.Sprintf("listed by %d threat-intel sources", feed.Hits)
	case feed.Hits > 0:
		opinion.Multiplier = 1.1
		opinion.Confidence = 80
		opinion.Rationale = fmt.Sprintf("listed by %d threat-intel source(s)", feed.Hits)
	default:
		opinion.Multiplier = 0.9
		opinion.Confidence = 55
		opinion.Rationale = "not present in any configured threat feed"
	}

	return opinion
}
