package conversation

import (
	"maps"
	"slices"
)

// HarmCategory names a safety category using the remote API's identifiers.
type HarmCategory string

const (
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryCivicIntegrity   HarmCategory = "HARM_CATEGORY_CIVIC_INTEGRITY"
)

// Threshold is the enforcement level applied to a harm category.
type Threshold string

const (
	ThresholdOff                 Threshold = "OFF"
	ThresholdBlockNone           Threshold = "BLOCK_NONE"
	ThresholdBlockOnlyHigh       Threshold = "BLOCK_ONLY_HIGH"
	ThresholdBlockMediumAndAbove Threshold = "BLOCK_MEDIUM_AND_ABOVE"
	ThresholdBlockLowAndAbove    Threshold = "BLOCK_LOW_AND_ABOVE"
)

// ThinkingEffort hints how much deliberation the model spends before answering.
// The empty value leaves the model default in place.
type ThinkingEffort string

const (
	ThinkingEffortUnset   ThinkingEffort = ""
	ThinkingEffortMinimal ThinkingEffort = "MINIMAL"
	ThinkingEffortLow     ThinkingEffort = "LOW"
	ThinkingEffortMedium  ThinkingEffort = "MEDIUM"
	ThinkingEffortHigh    ThinkingEffort = "HIGH"
)

// canonicalCategories fixes the order safety settings are emitted in.
var canonicalCategories = []HarmCategory{
	HarmCategoryHateSpeech,
	HarmCategoryDangerousContent,
	HarmCategorySexuallyExplicit,
	HarmCategoryHarassment,
	HarmCategoryCivicIntegrity,
}

// GenerationConfig carries the sampling and safety options for one request.
// Values are forwarded as-is; the remote API is the only validator, except that
// MaxOutputTokens must fit the wire's 32-bit field. Nil pointers and zero values
// leave the corresponding option unset.
type GenerationConfig struct {
	Temperature       *float64
	TopP              *float64
	MaxOutputTokens   int
	SafetyThresholds  map[HarmCategory]Threshold
	SystemInstruction string
	ThinkingEffort    ThinkingEffort

	// ResponseMIMEType asks for a response encoding, e.g. "application/json".
	ResponseMIMEType string
	// ResponseSchema is a JSON Schema document the response must conform to.
	// It is marshalled as JSON when sent.
	ResponseSchema any
}

// SafetySetting pairs a category with its threshold.
type SafetySetting struct {
	Category  HarmCategory
	Threshold Threshold
}

// SafetySettings returns the configured thresholds in a stable order: known
// categories first in canonical order, then any others sorted by name.
func (c GenerationConfig) SafetySettings() []SafetySetting {
	if len(c.SafetyThresholds) == 0 {
		return nil
	}
	settings := make([]SafetySetting, 0, len(c.SafetyThresholds))
	for _, cat := range canonicalCategories {
		if th, ok := c.SafetyThresholds[cat]; ok {
			settings = append(settings, SafetySetting{Category: cat, Threshold: th})
		}
	}
	for _, cat := range slices.Sorted(maps.Keys(c.SafetyThresholds)) {
		if slices.Contains(canonicalCategories, cat) {
			continue
		}
		settings = append(settings, SafetySetting{Category: cat, Threshold: c.SafetyThresholds[cat]})
	}
	return settings
}

// Float returns a pointer to v, for filling optional float fields in literals.
func Float(v float64) *float64 {
	return &v
}
