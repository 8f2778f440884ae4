package prompt

import (
	"regexp"
	"strings"
)

var (
	followUpMarker = regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(FollowUpMarker) + `\s*$`)
	listPrefix     = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	disclaimerText = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(NoMaterialsDisclaimer))
)

// EnsureDisclaimer makes an ungrounded answer begin with the no-materials disclaimer.
// A disclaimer the model placed elsewhere in the text is moved to the front.
func EnsureDisclaimer(answer string, grounded bool) string {
	if grounded {
		return answer
	}
	trimmed := strings.TrimSpace(answer)
	if strings.HasPrefix(strings.ToLower(trimmed), strings.ToLower(NoMaterialsDisclaimer)) {
		return trimmed
	}
	trimmed = strings.TrimSpace(disclaimerText.ReplaceAllString(trimmed, ""))
	if trimmed == "" {
		return NoMaterialsDisclaimer
	}
	return NoMaterialsDisclaimer + "\n\n" + trimmed
}

// ExtractFollowUps splits the follow-up block off the answer. The marker must sit on its own line.
func ExtractFollowUps(text string) (string, []string) {
	matches := followUpMarker.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(text), nil
	}
	last := matches[len(matches)-1]

	answer := strings.TrimSpace(text[:last[0]])
	block := text[last[1]:]

	var followUps []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(listPrefix.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		followUps = append(followUps, line)
		if len(followUps) == MaxFollowUps {
			break
		}
	}
	return answer, followUps
}
