package insights

import (
	"fmt"
	"math"
	"strings"

	"github.com/spacesedan/moodscope/internal/models"
)

const (
	tipSafety      = "Assess safety first; ask about intent, plan, means; provide crisis resources."
	tipDepression  = "Screen for MDD; explore sleep, appetite, anhedonia."
	tipAnxiety     = "Use grounding/breathing; identify triggers; consider CBT psychoeducation."
	tipPTSD        = "Check trauma history and avoidance; stabilize before trauma processing."
	tipPsychosis   = "Clarify reality-testing issues; consider psychiatric referral."
	tipRapport     = "Build rapport; reinforce strengths from positive/neutral periods."
	tipValidate    = "Validate emotions reflected in recent posts and set session goals."
	balancedAffect = "balanced"
)

func (l *Lexicon) QuickInsight(series map[string][]float64, avgCompound float64, aura models.Aura) string {
	dominant := l.DominantEmotion(series)
	if dominant == "" {
		dominant = balancedAffect
	}
	return fmt.Sprintf("Recent language shows %s affect; average sentiment %+.2f. Aura suggests: %s.",
		dominant, avgCompound, aura.Aura)
}

// TrendSummary lists the last-day share of each emotion in vocabulary order.
func (l *Lexicon) TrendSummary(series map[string][]float64) string {
	parts := make([]string, 0, len(series))
	for _, k := range l.Emotions {
		vals, ok := series[k]
		if !ok || len(vals) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d%%", k, int(math.RoundToEven(vals[len(vals)-1]*100))))
	}
	return "Over recent posts, emotion mix shows " + strings.Join(parts, ", ") + "."
}

func elevated(level models.RiskLevel) bool {
	return level == models.RiskModerate || level == models.RiskHigh
}

// SessionTips suggests talking points for the therapist from a risk profile.
func SessionTips(r models.RiskProfile) []string {
	var tips []string
	if r.Suicidal == models.RiskHigh {
		tips = append(tips, tipSafety)
	}
	if elevated(r.Depression) {
		tips = append(tips, tipDepression)
	}
	if elevated(r.Anxiety) {
		tips = append(tips, tipAnxiety)
	}
	if elevated(r.PTSD) {
		tips = append(tips, tipPTSD)
	}
	if elevated(r.Schizophrenia) {
		tips = append(tips, tipPsychosis)
	}
	if len(tips) == 0 {
		tips = append(tips, tipRapport)
	}
	return append(tips, tipValidate)
}
