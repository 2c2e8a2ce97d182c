package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"shrike/internal/domain"
	"shrike/internal/support"
)

const openAISystemPrompt = "You are a scam and phishing risk analyst. " +
	"Given facts about a scanned URL, respond with a single JSON object: " +
	`{"risk_score": 0-100, "multiplier": 0.7-1.3, "confidence": 0-100, ` +
	`"rationale": "...", "key_factors": ["..."]}. No prose outside the JSON.`

// OpenAIProducer asks a chat model for an independent risk opinion on the
// scan context. It is one adapter behind the SignalProducer contract; the
// aggregator never knows it is talking to an LLM.
type OpenAIProducer struct {
	name   string
	client *openai.Client
	model  string
}

func NewOpenAIProducer(name, model string) (*OpenAIProducer, error) {
	apiKey := support.GetEnv("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("producers: OPENAI_API_KEY not set")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIProducer{
		name:   name,
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (p *OpenAIProducer) Name() string {
	return p.name
}

func (p *OpenAIProducer) Analyze(ctx context.Context, scan domain.ScanContext) (domain.SignalOpinion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: describeScan(scan)},
		},
	})
	if err != nil {
		return domain.SignalOpinion{}, fmt.Errorf("producers: openai call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.SignalOpinion{}, fmt.Errorf("producers: openai returned no choices")
	}

	return parseModelOpinion(p.name, resp.Choices[0].Message.Content)
}

type modelOpinionPayload struct {
	RiskScore  float64  `json:"risk_score"`
	Multiplier float64  `json:"multiplier"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale"`
	KeyFactors []string `json:"key_factors"`
}

// parseModelOpinion decodes the model's JSON answer. Models occasionally wrap
// JSON in code fences; those are stripped before decoding.
func parseModelOpinion(producer, content string) (domain.SignalOpinion, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var payload modelOpinionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return domain.SignalOpinion{}, fmt.Errorf("producers: malformed model response: %w", err)
	}

	return domain.SignalOpinion{
		Producer:   producer,
		RiskScore:  payload.RiskScore,
		Multiplier: payload.Multiplier,
		Confidence: payload.Confidence,
		Rationale:  payload.Rationale,
		KeyFactors: payload.KeyFactors,
	}, nil
}

func describeScan(scan domain.ScanContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Target: %s\n", scan.Target)
	fmt.Fprintf(&sb, "Host: %s, scheme: %s, path: %s\n", scan.Host, scan.Scheme, scan.Path)
	fmt.Fprintf(&sb, "Reachability branch: %s\n", scan.Branch)
	fmt.Fprintf(&sb, "Domain age (days): %d\n", scan.Evidence.DomainAgeDays)
	fmt.Fprintf(&sb, "TLS valid: %t, login form: %t, punycode: %t\n",
		scan.Evidence.TLSValid, scan.Evidence.HasLoginForm, scan.Evidence.UsesPunycode)
	fmt.Fprintf(&sb, "Threat-intel hits: %d, redirects: %d\n",
		scan.Evidence.ThreatIntelHits, scan.Evidence.RedirectCount)
	return sb.String()
}
