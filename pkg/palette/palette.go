// Package palette asks the model for a seasonal color analysis of a photo and
// decodes the structured answer.
package palette

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/ronnysplore/studio/pkg/ai"
	"github.com/ronnysplore/studio/pkg/conversation"
)

// Prompt instructs the model how to analyze the attached photo.
const Prompt = `You are an expert personal stylist specializing in color analysis. Your task is to analyze the provided user image to determine their seasonal color palette.

Analyze the user's skin undertones (cool, warm, or neutral), hair color, and eye color from the image. Based on this analysis, determine which of the 12 seasonal color palettes they fit into (e.g., Light Spring, Deep Autumn, Cool Winter, etc.).

Your response must include:
1.  **season**: The name of the determined seasonal color palette.
2.  **palette**: An array of 5-7 hex color codes representing the most flattering colors for this season.
3.  **description**: A helpful paragraph explaining the characteristics of this season and why these colors are suitable for the user. Be encouraging and positive.`

const photoLabel = "User's Photo:"

var (
	ErrNoImage  = errors.New("image is empty")
	ErrNotImage = errors.New("not an image")
)

// Analysis is the model's answer.
type Analysis struct {
	Season      string   `json:"season" jsonschema_description:"The determined seasonal color palette such as Warm Autumn or Cool Winter" validate:"required"`
	Palette     []string `json:"palette" jsonschema:"minItems=5,maxItems=7" jsonschema_description:"Hex color codes that are most flattering for the user" validate:"min=1,dive,len=7,hexcolor"`
	Description string   `json:"description" jsonschema_description:"Why these colors flatter the user" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Schema returns the JSON Schema the response must follow.
var Schema = sync.OnceValue(func() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}
	s := r.Reflect(&Analysis{})
	s.Version = ""
	return s
})

// NewRequest builds the single-turn request for image. An empty model is
// filled in by the runner.
func NewRequest(model, mimeType string, image []byte) (ai.ChatRequest, error) {
	if len(image) == 0 {
		return ai.ChatRequest{}, ErrNoImage
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return ai.ChatRequest{}, fmt.Errorf("%w: %q", ErrNotImage, mimeType)
	}

	turn := conversation.Turn{
		Role: conversation.RoleUser,
		Segments: []conversation.Segment{
			conversation.Text(Prompt),
			conversation.Text(photoLabel),
			conversation.Inline(mimeType, image),
		},
	}
	return ai.ChatRequest{
		Model:        model,
		Conversation: conversation.New(turn),
		Config: conversation.GenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   Schema(),
		},
	}, nil
}

// Streamer sends a request and copies the streamed text to w.
type Streamer interface {
	Stream(ctx context.Context, req ai.ChatRequest, w io.Writer) error
}

// Analyze streams req through s and decodes the collected text.
func Analyze(ctx context.Context, s Streamer, req ai.ChatRequest) (Analysis, error) {
	var buf bytes.Buffer
	if err := s.Stream(ctx, req, &buf); err != nil {
		return Analysis{}, err
	}
	return Decode(buf.String())
}

// Decode parses and validates a JSON answer. A surrounding markdown code
// fence is tolerated.
func Decode(text string) (Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(trimFence(text)), &a); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	if err := validate.Struct(a); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return Analysis{}, fmt.Errorf("invalid analysis %s: %q fails %q", fe.Namespace(), fmt.Sprint(fe.Value()), fe.ActualTag())
		}
		return Analysis{}, fmt.Errorf("invalid analysis: %w", err)
	}
	return a, nil
}

func trimFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
