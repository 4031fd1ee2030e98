package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/ronnysplore/studio/pkg/ai"
	"github.com/ronnysplore/studio/pkg/config"
	"github.com/ronnysplore/studio/pkg/conversation"
)

// ErrMissingCredential is returned when the credential variable is unset or empty.
var ErrMissingCredential = errors.New("missing credential")

// Runner sends one conversation to a provider and copies the streamed text to
// its output.
type Runner struct {
	cfg       config.Config
	registry  *ai.Registry
	lookupEnv func(string) (string, bool)
	out       io.Writer
}

// Option customises a Runner.
type Option func(*Runner)

// WithRegistry sets the registry providers are resolved from.
func WithRegistry(r *ai.Registry) Option {
	return func(rn *Runner) { rn.registry = r }
}

// WithLookupEnv replaces os.LookupEnv for credential resolution.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(rn *Runner) { rn.lookupEnv = fn }
}

// WithOutput sets where streamed text is written.
func WithOutput(w io.Writer) Option {
	return func(rn *Runner) { rn.out = w }
}

// New returns a Runner writing to os.Stdout with providers from
// ai.DefaultRegistry.
func New(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		registry:  ai.DefaultRegistry,
		lookupEnv: os.LookupEnv,
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run resolves the credential, opens a single stream for req and writes each
// fragment to the output as soon as it arrives. Fragments already written stay
// written when the stream later fails.
func (r *Runner) Run(ctx context.Context, req ai.ChatRequest) error {
	return r.Stream(ctx, req, r.out)
}

// Stream is Run with an explicit destination for the fragments.
func (r *Runner) Stream(ctx context.Context, req ai.ChatRequest, w io.Writer) error {
	apiKey, err := r.credential()
	if err != nil {
		return err
	}

	providerType := ai.ProviderType(r.cfg.Backend)
	provider, err := r.registry.GetProvider(ai.ProviderConfig{
		Type:   providerType,
		Config: r.cfg,
		APIKey: apiKey,
	})
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	if req.Model == "" {
		req.Model = r.cfg.Model
	}
	slog.Debug("stream_request",
		"backend", string(providerType),
		"model", req.Model,
		"turns", req.Conversation.Len(),
		"digest", requestDigest(req),
	)

	stream, err := provider.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	chunks, written := 0, 0
	for stream.Next() {
		n, err := io.WriteString(w, stream.Content())
		written += n
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		chunks++
	}
	if err := stream.Err(); err != nil {
		slog.Debug("stream_failed", "chunks", chunks, "bytes", written, "error", err)
		return fmt.Errorf("stream: %w", err)
	}

	slog.Debug("stream_complete", "chunks", chunks, "bytes", written)
	return nil
}

func (r *Runner) credential() (string, error) {
	name := r.cfg.CredentialEnv
	if name == "" {
		name = config.DefaultCredentialEnv
	}
	value, ok := r.lookupEnv(name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingCredential, name)
	}
	return strings.TrimSpace(value), nil
}

// requestDigest fingerprints the outbound payload so two runs can be compared
// from their logs.
func requestDigest(req ai.ChatRequest) string {
	payload := struct {
		Model  string
		Turns  []conversation.Turn
		Config conversation.GenerationConfig
	}{
		Model:  req.Model,
		Turns:  req.Conversation.Turns(),
		Config: req.Config,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
