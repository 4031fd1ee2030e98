package runner

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/x/exp/golden"

	"github.com/ronnysplore/studio/pkg/ai"
	"github.com/ronnysplore/studio/pkg/config"
	"github.com/ronnysplore/studio/pkg/conversation"
)

// scriptedStream yields chunks in order, then ends with failErr if set.
type scriptedStream struct {
	chunks  []string
	failErr error
	onFail  func()

	pos    int
	cur    string
	err    error
	closed bool
}

func (s *scriptedStream) Next() bool {
	if s.closed || s.err != nil {
		return false
	}
	if s.pos < len(s.chunks) {
		s.cur = s.chunks[s.pos]
		s.pos++
		return true
	}
	if s.failErr != nil {
		if s.onFail != nil {
			s.onFail()
		}
		s.err = s.failErr
	}
	return false
}

func (s *scriptedStream) Content() string { return s.cur }
func (s *scriptedStream) Err() error      { return s.err }
func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

type fakeProvider struct {
	newStream func() *scriptedStream
	requests  []ai.ChatRequest
	streams   []*scriptedStream
}

func (p *fakeProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	p.requests = append(p.requests, req)
	s := p.newStream()
	p.streams = append(p.streams, s)
	return s, nil
}

type harness struct {
	runner    *Runner
	provider  *fakeProvider
	factory   []ai.ProviderConfig
	out       *bytes.Buffer
	lookupEnv map[string]string
}

func newHarness(t *testing.T, chunks []string, failErr error) *harness {
	t.Helper()
	h := &harness{
		out:       &bytes.Buffer{},
		lookupEnv: map[string]string{config.DefaultCredentialEnv: "secret"},
	}
	h.provider = &fakeProvider{
		newStream: func() *scriptedStream {
			return &scriptedStream{chunks: chunks, failErr: failErr}
		},
	}

	registry := ai.NewRegistry()
	registry.Register(ai.ProviderInfo{Type: ai.ProviderVertex}, func(cfg ai.ProviderConfig) (ai.Provider, error) {
		h.factory = append(h.factory, cfg)
		return h.provider, nil
	})

	h.runner = New(config.Default(),
		WithRegistry(registry),
		WithOutput(h.out),
		WithLookupEnv(func(name string) (string, bool) {
			v, ok := h.lookupEnv[name]
			return v, ok
		}),
	)
	return h
}

func demoRequest() ai.ChatRequest {
	return ai.ChatRequest{
		Model:        conversation.DemoModel,
		Conversation: conversation.DemoConversation(),
		Config:       conversation.DemoGenerationConfig(),
	}
}

func TestRun_InvokesProviderOnceWithLiteralPayload(t *testing.T) {
	h := newHarness(t, []string{"ok"}, nil)

	if err := h.runner.Run(context.Background(), demoRequest()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(h.factory) != 1 {
		t.Fatalf("Expected provider to be created once, got %d", len(h.factory))
	}
	if h.factory[0].APIKey != "secret" {
		t.Fatalf("Expected credential to reach the provider, got %q", h.factory[0].APIKey)
	}
	if h.factory[0].Type != ai.ProviderVertex {
		t.Fatalf("Expected vertex backend, got %q", h.factory[0].Type)
	}
	if len(h.provider.requests) != 1 {
		t.Fatalf("Expected exactly one outbound call, got %d", len(h.provider.requests))
	}

	got := h.provider.requests[0]
	want := demoRequest()
	if got.Model != want.Model {
		t.Fatalf("Expected model %q, got %q", want.Model, got.Model)
	}
	if got.Conversation.Len() != want.Conversation.Len() {
		t.Fatalf("Expected %d turns, got %d", want.Conversation.Len(), got.Conversation.Len())
	}
	if !slices.Equal(got.Conversation.Roles(), want.Conversation.Roles()) {
		t.Fatalf("Expected roles %v, got %v", want.Conversation.Roles(), got.Conversation.Roles())
	}
	for i, turn := range got.Conversation.Turns() {
		wantTurn := want.Conversation.Turns()[i]
		if len(turn.Segments) != len(wantTurn.Segments) {
			t.Fatalf("Expected turn %d to have %d segments, got %d", i, len(wantTurn.Segments), len(turn.Segments))
		}
		for j := range turn.Segments {
			if turn.Segments[j].Text != wantTurn.Segments[j].Text {
				t.Fatalf("Turn %d segment %d differs", i, j)
			}
		}
	}

	gc, wc := got.Config, want.Config
	if *gc.Temperature != *wc.Temperature || *gc.TopP != *wc.TopP {
		t.Fatalf("Sampling parameters differ: got %v/%v", *gc.Temperature, *gc.TopP)
	}
	if gc.MaxOutputTokens != wc.MaxOutputTokens {
		t.Fatalf("Expected max output tokens %d, got %d", wc.MaxOutputTokens, gc.MaxOutputTokens)
	}
	if gc.SystemInstruction != wc.SystemInstruction {
		t.Fatalf("Expected system instruction %q, got %q", wc.SystemInstruction, gc.SystemInstruction)
	}
	if gc.ThinkingEffort != wc.ThinkingEffort {
		t.Fatalf("Expected thinking effort %q, got %q", wc.ThinkingEffort, gc.ThinkingEffort)
	}
	if !maps.Equal(gc.SafetyThresholds, wc.SafetyThresholds) {
		t.Fatalf("Expected safety thresholds %v, got %v", wc.SafetyThresholds, gc.SafetyThresholds)
	}
}

func TestRun_ConcatenatesChunksWithoutSeparators(t *testing.T) {
	h := newHarness(t, []string{"Hel", "lo"}, nil)

	if err := h.runner.Run(context.Background(), demoRequest()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := h.out.String(); got != "Hello" {
		t.Fatalf("Expected output %q, got %q", "Hello", got)
	}
	if !h.provider.streams[0].closed {
		t.Fatal("Expected stream to be closed")
	}
}

func TestRun_PartialOutputBeforeFailure(t *testing.T) {
	streamErr := errors.New("quota exceeded")
	h := newHarness(t, []string{"Hel"}, streamErr)

	var atFailure string
	h.provider.newStream = func() *scriptedStream {
		return &scriptedStream{
			chunks:  []string{"Hel"},
			failErr: streamErr,
			onFail:  func() { atFailure = h.out.String() },
		}
	}

	err := h.runner.Run(context.Background(), demoRequest())
	if !errors.Is(err, streamErr) {
		t.Fatalf("Expected stream error to propagate, got %v", err)
	}
	if atFailure != "Hel" {
		t.Fatalf("Expected %q written before the failure, got %q", "Hel", atFailure)
	}
	if got := h.out.String(); got != "Hel" {
		t.Fatalf("Expected partial output to remain, got %q", got)
	}
}

func TestRun_MissingCredential(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unset", env: map[string]string{}},
		{name: "empty", env: map[string]string{config.DefaultCredentialEnv: ""}},
		{name: "blank", env: map[string]string{config.DefaultCredentialEnv: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, []string{"never"}, nil)
			h.lookupEnv = tt.env

			err := h.runner.Run(context.Background(), demoRequest())
			if !errors.Is(err, ErrMissingCredential) {
				t.Fatalf("Expected ErrMissingCredential, got %v", err)
			}
			if !strings.Contains(err.Error(), config.DefaultCredentialEnv) {
				t.Fatalf("Expected error to name the variable, got %v", err)
			}
			if len(h.factory) != 0 {
				t.Fatal("Expected no provider to be created")
			}
			if len(h.provider.requests) != 0 {
				t.Fatal("Expected no outbound call")
			}
			if h.out.Len() != 0 {
				t.Fatalf("Expected no output, got %q", h.out.String())
			}
		})
	}
}

func TestRun_CustomCredentialEnv(t *testing.T) {
	h := newHarness(t, []string{"ok"}, nil)
	cfg := config.Default()
	cfg.CredentialEnv = "GEMINI_API_KEY"
	h.runner.cfg = cfg
	h.lookupEnv = map[string]string{"GEMINI_API_KEY": " other-secret "}

	if err := h.runner.Run(context.Background(), demoRequest()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if h.factory[0].APIKey != "other-secret" {
		t.Fatalf("Expected trimmed credential from GEMINI_API_KEY, got %q", h.factory[0].APIKey)
	}
}

func TestRun_Idempotent(t *testing.T) {
	h := newHarness(t, []string{"I'm ", "fine", ", thanks."}, nil)

	if err := h.runner.Run(context.Background(), demoRequest()); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	first := h.out.String()
	h.out.Reset()

	if err := h.runner.Run(context.Background(), demoRequest()); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	second := h.out.String()

	if first != second {
		t.Fatalf("Expected identical output, got %q and %q", first, second)
	}
	if len(h.provider.requests) != 2 {
		t.Fatalf("Expected one call per run, got %d", len(h.provider.requests))
	}
	if requestDigest(h.provider.requests[0]) != requestDigest(h.provider.requests[1]) {
		t.Fatal("Expected identical payloads across runs")
	}
}

func TestRun_DefaultsModelFromConfig(t *testing.T) {
	h := newHarness(t, nil, nil)
	req := demoRequest()
	req.Model = ""

	if err := h.runner.Run(context.Background(), req); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := h.provider.requests[0].Model; got != config.Default().Model {
		t.Fatalf("Expected config model %q, got %q", config.Default().Model, got)
	}
}

func TestRun_UnknownBackend(t *testing.T) {
	h := newHarness(t, []string{"x"}, nil)
	cfg := config.Default()
	cfg.Backend = "gemini"
	h.runner.cfg = cfg

	err := h.runner.Run(context.Background(), demoRequest())
	if err == nil {
		t.Fatal("Expected error for unregistered backend")
	}
	if len(h.provider.requests) != 0 {
		t.Fatal("Expected no outbound call")
	}
}

type failingWriter struct{ err error }

func (w failingWriter) Write(p []byte) (int, error) { return 0, w.err }

func TestRun_WriteErrorStopsStream(t *testing.T) {
	h := newHarness(t, []string{"a", "b"}, nil)
	writeErr := errors.New("broken pipe")
	h.runner.out = failingWriter{err: writeErr}

	err := h.runner.Run(context.Background(), demoRequest())
	if !errors.Is(err, writeErr) {
		t.Fatalf("Expected write error, got %v", err)
	}
	s := h.provider.streams[0]
	if s.pos != 1 {
		t.Fatalf("Expected to stop after the first chunk, consumed %d", s.pos)
	}
	if !s.closed {
		t.Fatal("Expected stream to be closed after a write error")
	}
}

func TestRunner_GoldenOutput(t *testing.T) {
	h := newHarness(t, []string{
		"I'm doing well",
		", thank you",
		" for asking!\n",
		"How can I help",
		" you today?",
	}, nil)

	if err := h.runner.Run(context.Background(), demoRequest()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	golden.RequireEqual(t, h.out.Bytes())
}

func TestRequestDigest(t *testing.T) {
	a := requestDigest(demoRequest())
	b := requestDigest(demoRequest())
	if a == "" {
		t.Fatal("Expected a digest")
	}
	if a != b {
		t.Fatalf("Expected stable digest, got %s and %s", a, b)
	}

	changed := demoRequest()
	changed.Config.SystemInstruction = "Say anything"
	if requestDigest(changed) == a {
		t.Fatal("Expected digest to change with the payload")
	}
}

func TestStream_WritesToGivenWriter(t *testing.T) {
	h := newHarness(t, []string{`{"season":`, `"Deep Autumn"}`}, nil)

	var collected bytes.Buffer
	if err := h.runner.Stream(context.Background(), demoRequest(), &collected); err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	if collected.String() != `{"season":"Deep Autumn"}` {
		t.Fatalf("Expected fragments in the given writer, got %q", collected.String())
	}
	if h.out.Len() != 0 {
		t.Fatalf("Expected default output untouched, got %q", h.out.String())
	}
}
