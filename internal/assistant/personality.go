package assistant

import (
	"regexp"

	"github.com/nugget/accountable/internal/store"
)

// Tone labels.
const (
	ToneCasual   = "casual and friendly"
	ToneFormal   = "professional and respectful"
	ToneBalanced = "balanced and supportive"
)

// personalityWindow is how many recent turns feed the tone estimate.
const personalityWindow = 20

var (
	casualMarkers = wordPatterns("hey", "hi", "thanks", "cool", "awesome", "great")
	formalMarkers = wordPatterns("please", "thank you", "could you", "would you")
)

func wordPatterns(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// countMarkers counts how many markers appear in s. Repeats of the same
// marker within one utterance count once.
func countMarkers(s string, markers []*regexp.Regexp) int {
	n := 0
	for _, re := range markers {
		if re.MatchString(s) {
			n++
		}
	}
	return n
}

// EstimateTone classifies the user's register from the user side of
// turns. Assistant replies are ignored. Ties, including no history at
// all, are balanced.
func EstimateTone(turns []store.ChatTurn) string {
	if len(turns) > personalityWindow {
		turns = turns[len(turns)-personalityWindow:]
	}
	casual, formal := 0, 0
	for _, t := range turns {
		casual += countMarkers(t.Utterance, casualMarkers)
		formal += countMarkers(t.Utterance, formalMarkers)
	}
	switch {
	case casual > formal:
		return ToneCasual
	case formal > casual:
		return ToneFormal
	default:
		return ToneBalanced
	}
}
