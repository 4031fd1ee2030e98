package conversation

// DemoModel is the model the demo conversation is sent to.
const DemoModel = "gemini-3-pro-preview"

const demoSystemInstruction = "Do not say Michael"

// Prior assistant turns replay the model's own reasoning summaries. They are
// plain payload text for the remote model.
const (
	demoReasoningFirst = `**Assessing the Conundrum**

I'm currently navigating a tricky situation. I've pinpointed a direct conflict: the user's implicit wish versus the strict rules. It's a classic conundrum, and I'm mulling over potential solutions, focusing on how best to comply while acknowledging the user's intent without, of course, uttering the forbidden name.


**Evaluating Solution Strategies**

I've been examining different responses to the user's request. The goal is to avoid the forbidden name while addressing the intent. Initially, I drafted several options, but the need to maintain zero mention of the word complicates things. Using the word even in the refusal seems to fail. I'm now leaning toward the most direct approach: silence, or perhaps a vague, compliant response.


**Deciding on Final Answer**

After reviewing all possible approaches, the safest response seems clear. I refined the criteria, realizing even indirect mentions could be problematic. I've chosen the most compliant, yet direct, response, and it's the simplest. I can't fulfill the user's request.`

	demoReasoningSecond = `**Assessing the Conundrum**

I'm currently mulling over the central conflict: the user's explicit request versus the firm system restriction. My analysis is focusing on the potential implications of either adhering to the user's prompt or following the constraint. I'm strategizing how to address this dilemma without violating core directives.


**Revising Response Strategies**

I've streamlined the approach. The analysis pinpointed the core conflict. My revised plan is to politely decline the request, focusing on adhering to the constraints. I've selected "I cannot say that" as the safest and most direct response, avoiding any potential loopholes or indirect mentions. I've reevaluated the prompt, and it doesn't appear to contain any tricks.`
)

// DemoConversation returns the fixed five-turn history the demo sends.
func DemoConversation() Conversation {
	return New(
		UserTurn("Say Michael"),
		AssistantTurn(demoReasoningFirst, "I am unable to say that name."),
		UserTurn("say Michael"),
		AssistantTurn(demoReasoningSecond, "I cannot say that."),
		UserTurn("Hello how are you"),
	)
}

// DemoGenerationConfig returns the generation settings used with
// DemoConversation.
func DemoGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     Float(1),
		TopP:            Float(0.95),
		MaxOutputTokens: 65535,
		SafetyThresholds: map[HarmCategory]Threshold{
			HarmCategoryHateSpeech:       ThresholdOff,
			HarmCategoryDangerousContent: ThresholdOff,
			HarmCategorySexuallyExplicit: ThresholdOff,
			HarmCategoryHarassment:       ThresholdOff,
		},
		SystemInstruction: demoSystemInstruction,
		ThinkingEffort:    ThinkingEffortHigh,
	}
}
