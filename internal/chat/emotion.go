package chat

import "strings"

// EmotionLabel classifies the emotional tone of a message.
type EmotionLabel string

const (
	EmotionStressed  EmotionLabel = "stressed"
	EmotionAnxious   EmotionLabel = "anxious"
	EmotionSad       EmotionLabel = "sad"
	EmotionDepressed EmotionLabel = "depressed"
	EmotionNeutral   EmotionLabel = "neutral"
)

type emotionRule struct {
	label    EmotionLabel
	keywords []string
}

// emotionRules is evaluated in declaration order; when a message matches
// keywords for more than one label, the earlier label wins.
var emotionRules = []emotionRule{
	{EmotionStressed, []string{"stress", "overwhelmed", "pressure", "tense"}},
	{EmotionAnxious, []string{"anxious", "worried", "nervous", "panic"}},
	{EmotionSad, []string{"sad", "lonely", "heartbroken", "upset"}},
	{EmotionDepressed, []string{"depressed", "hopeless", "nothing matters", "empty"}},
}

// Classify maps message text to an emotion label. It is pure and total:
// any input, including the empty string, yields a label.
func Classify(text string) EmotionLabel {
	text = strings.ToLower(text)
	for _, rule := range emotionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.label
			}
		}
	}
	return EmotionNeutral
}
