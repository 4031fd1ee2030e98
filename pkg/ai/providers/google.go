package providers

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ronnysplore/studio/pkg/ai"
	"github.com/ronnysplore/studio/pkg/conversation"
	"github.com/ronnysplore/studio/pkg/version"

	"google.golang.org/genai"
)

const googleDefaultModel = "gemini-3-pro-preview"

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderVertex,
		Name:        "Vertex AI",
		Description: "Gemini models on Vertex AI, authenticated with an express-mode API key",
	}, NewGoogleProvider)
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderGemini,
		Name:        "Google AI",
		Description: "Gemini API with an AI Studio API key",
	}, NewGoogleProvider)
}

type googleModelsClient interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

var newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GoogleProvider implements the Provider interface using the native Google GenAI SDK.
type GoogleProvider struct {
	models       googleModelsClient
	defaultModel string
}

// NewGoogleProvider creates a Google provider for the Vertex AI or Gemini API
// backend, depending on cfg.Type.
func NewGoogleProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		slog.Debug("google_provider_missing_key")
		return nil, fmt.Errorf("google api key is required")
	}

	var backend genai.Backend
	switch cfg.Type {
	case ai.ProviderVertex:
		backend = genai.BackendVertexAI
	case ai.ProviderGemini:
		backend = genai.BackendGeminiAPI
	default:
		return nil, fmt.Errorf("unsupported google backend: %s", cfg.Type)
	}

	model := strings.TrimSpace(cfg.Config.Model)
	if model == "" {
		model = googleDefaultModel
	}

	// Express mode: the key alone identifies the project, so no project or
	// location is passed.
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: backend,
		HTTPOptions: genai.HTTPOptions{
			Headers: http.Header{"User-Agent": []string{version.UserAgent()}},
		},
	}
	if seconds := cfg.Config.PingIntervalSeconds; seconds > 0 {
		httpClient, err := newPingClient(time.Duration(seconds) * time.Second)
		if err != nil {
			return nil, fmt.Errorf("configure transport: %w", err)
		}
		clientCfg.HTTPClient = httpClient
	}

	client, err := newGoogleClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	slog.Debug("google_provider_ready",
		"backend", string(cfg.Type),
		"model", model,
		"ping_interval_seconds", cfg.Config.PingIntervalSeconds,
	)
	return &GoogleProvider{
		models:       client.Models,
		defaultModel: model,
	}, nil
}

// CreateChatCompletionStream sends a streaming generation request. The
// request goes out when the returned stream is first advanced.
func (p *GoogleProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	model, contents, cfg, err := p.buildRequest(req)
	if err != nil {
		return nil, err
	}

	stream := p.models.GenerateContentStream(ctx, model, contents, cfg)
	return newGoogleStream(stream), nil
}

func (p *GoogleProvider) buildRequest(req ai.ChatRequest) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return "", nil, nil, fmt.Errorf("model is required")
	}
	if req.Conversation.Len() == 0 {
		return "", nil, nil, fmt.Errorf("conversation has no turns")
	}
	if req.Config.MaxOutputTokens > math.MaxInt32 {
		return "", nil, nil, fmt.Errorf("max output tokens %d exceeds %d", req.Config.MaxOutputTokens, math.MaxInt32)
	}

	turns := req.Conversation.Turns()
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		contents = append(contents, &genai.Content{
			Role:  googleRole(turn.Role),
			Parts: googleParts(turn.Segments),
		})
	}

	return model, contents, googleConfig(req.Config), nil
}

func googleRole(role conversation.Role) string {
	switch role {
	case conversation.RoleAssistant:
		return genai.RoleModel
	case conversation.RoleUser:
		return genai.RoleUser
	default:
		return string(role)
	}
}

func googleParts(segments []conversation.Segment) []*genai.Part {
	parts := make([]*genai.Part, 0, len(segments))
	for _, seg := range segments {
		if seg.IsInline() {
			parts = append(parts, genai.NewPartFromBytes(seg.Data, seg.MIMEType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(seg.Text))
	}
	return parts
}

func googleConfig(c conversation.GenerationConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if c.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: c.SystemInstruction},
			},
		}
	}
	if c.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*c.Temperature))
	}
	if c.TopP != nil {
		config.TopP = genai.Ptr(float32(*c.TopP))
	}
	if c.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(c.MaxOutputTokens)
	}
	for _, s := range c.SafetySettings() {
		config.SafetySettings = append(config.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	if c.ThinkingEffort != conversation.ThinkingEffortUnset {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingLevel: genai.ThinkingLevel(c.ThinkingEffort),
		}
	}
	config.ResponseMIMEType = c.ResponseMIMEType
	if c.ResponseSchema != nil {
		config.ResponseJsonSchema = c.ResponseSchema
	}
	return config
}

// googleStream pulls one response at a time from the SDK iterator.
type googleStream struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	current string
	err     error
	done    bool
}

func newGoogleStream(stream iter.Seq2[*genai.GenerateContentResponse, error]) *googleStream {
	next, stop := iter.Pull2(stream)
	return &googleStream{next: next, stop: stop}
}

func (s *googleStream) Next() bool {
	if s.done {
		return false
	}

	for {
		resp, err, ok := s.next()
		if !ok {
			s.finish()
			return false
		}
		if err != nil {
			s.err = err
			s.finish()
			return false
		}
		text := extractVisibleText(resp)
		if text == "" {
			continue
		}
		s.current = text
		return true
	}
}

func (s *googleStream) Content() string {
	return s.current
}

func (s *googleStream) Err() error {
	return s.err
}

func (s *googleStream) Close() error {
	if !s.done {
		s.finish()
	}
	return nil
}

func (s *googleStream) finish() {
	s.done = true
	s.current = ""
	s.stop()
}

// Ensure interface compliance
var _ ai.Provider = (*GoogleProvider)(nil)

// extractVisibleText concatenates the first candidate's text parts, skipping
// thought summaries.
func extractVisibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
