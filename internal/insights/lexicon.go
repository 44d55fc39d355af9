package insights

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// Lexicon is the data-driven policy table behind the risk and personality
// heuristics.
type Lexicon struct {
	Emotions    []string          `yaml:"emotions"`
	Risk        RiskPolicy        `yaml:"risk"`
	Personality PersonalityPolicy `yaml:"personality"`
}

type RiskKeywords struct {
	Suicide    []string `yaml:"suicide"`
	Anxiety    []string `yaml:"anxiety"`
	PTSD       []string `yaml:"ptsd"`
	Psychosis  []string `yaml:"psychosis"`
	Depression []string `yaml:"depression"`
}

type DepressionWeights struct {
	Sadness           float64 `yaml:"sadness"`
	NonNeutral        float64 `yaml:"non_neutral"`
	NegativeSentiment float64 `yaml:"negative_sentiment"`
	Keywords          float64 `yaml:"keywords"`
}

type AnxietyWeights struct {
	Fear              float64 `yaml:"fear"`
	Surprise          float64 `yaml:"surprise"`
	Keywords          float64 `yaml:"keywords"`
	NegativeSentiment float64 `yaml:"negative_sentiment"`
}

type PTSDWeights struct {
	Keywords float64 `yaml:"keywords"`
	Fear     float64 `yaml:"fear"`
	Anger    float64 `yaml:"anger"`
}

type SchizophreniaWeights struct {
	Keywords float64 `yaml:"keywords"`
	Surprise float64 `yaml:"surprise"`
	Disgust  float64 `yaml:"disgust"`
}

type SuicidalWeights struct {
	Keywords          float64 `yaml:"keywords"`
	Sadness           float64 `yaml:"sadness"`
	NegativeSentiment float64 `yaml:"negative_sentiment"`
}

type RiskWeights struct {
	Depression    DepressionWeights    `yaml:"depression"`
	Anxiety       AnxietyWeights       `yaml:"anxiety"`
	PTSD          PTSDWeights          `yaml:"ptsd"`
	Schizophrenia SchizophreniaWeights `yaml:"schizophrenia"`
	Suicidal      SuicidalWeights      `yaml:"suicidal"`
}

type RiskCaps struct {
	Depression    float64 `yaml:"depression"`
	Anxiety       float64 `yaml:"anxiety"`
	PTSD          float64 `yaml:"ptsd"`
	Schizophrenia float64 `yaml:"schizophrenia"`
	Suicidal      float64 `yaml:"suicidal"`
}

type RiskThresholds struct {
	Moderate float64 `yaml:"moderate"`
	High     float64 `yaml:"high"`
}

type RiskPolicy struct {
	Keywords   RiskKeywords   `yaml:"keywords"`
	Weights    RiskWeights    `yaml:"weights"`
	Caps       RiskCaps       `yaml:"caps"`
	Thresholds RiskThresholds `yaml:"thresholds"`
}

type TraitFormula struct {
	Weights map[string]float64 `yaml:"weights"`
	Min     float64            `yaml:"min"`
	Max     float64            `yaml:"max"`
}

type PersonalityPolicy struct {
	Categories map[string][]string     `yaml:"categories"`
	Traits     map[string]TraitFormula `yaml:"traits"`
}

var traitNames = []string{"openness", "conscientiousness", "extraversion", "agreeableness", "neuroticism"}

var defaultLexicon *Lexicon

func init() {
	lex, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic(fmt.Errorf("[Lexicon] embedded lexicon is invalid: %w", err))
	}
	defaultLexicon = lex
}

// DefaultLexicon returns the embedded policy table. Callers must not mutate it.
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

// LoadLexicon reads an override table from path, or returns the default
// table when path is empty.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[Lexicon] failed to read %s: %w", path, err)
	}
	lex, err := ParseLexicon(raw)
	if err != nil {
		return nil, fmt.Errorf("[Lexicon] %s: %w", path, err)
	}
	slog.Info("[Lexicon] Loaded override lexicon",
		slog.String("path", path),
		slog.Int("emotions", len(lex.Emotions)))
	return lex, nil
}

func ParseLexicon(raw []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	lex.normalize()
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// normalize lowercases every word so matching against normalized text works.
func (l *Lexicon) normalize() {
	lower := func(ws []string) []string {
		out := make([]string, 0, len(ws))
		for _, w := range ws {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				out = append(out, w)
			}
		}
		return out
	}
	l.Emotions = lower(l.Emotions)
	l.Risk.Keywords.Suicide = lower(l.Risk.Keywords.Suicide)
	l.Risk.Keywords.Anxiety = lower(l.Risk.Keywords.Anxiety)
	l.Risk.Keywords.PTSD = lower(l.Risk.Keywords.PTSD)
	l.Risk.Keywords.Psychosis = lower(l.Risk.Keywords.Psychosis)
	l.Risk.Keywords.Depression = lower(l.Risk.Keywords.Depression)
	for k, ws := range l.Personality.Categories {
		l.Personality.Categories[k] = lower(ws)
	}
}

func (l *Lexicon) Validate() error {
	if len(l.Emotions) == 0 {
		return fmt.Errorf("emotion vocabulary is empty")
	}
	caps := map[string]float64{
		"depression":    l.Risk.Caps.Depression,
		"anxiety":       l.Risk.Caps.Anxiety,
		"ptsd":          l.Risk.Caps.PTSD,
		"schizophrenia": l.Risk.Caps.Schizophrenia,
		"suicidal":      l.Risk.Caps.Suicidal,
	}
	for name, c := range caps {
		if c <= 0 {
			return fmt.Errorf("risk cap for %s must be positive, got %v", name, c)
		}
	}
	t := l.Risk.Thresholds
	if t.Moderate <= 0 || t.High <= t.Moderate {
		return fmt.Errorf("risk thresholds must satisfy 0 < moderate < high, got %v/%v", t.Moderate, t.High)
	}
	for _, name := range traitNames {
		f, ok := l.Personality.Traits[name]
		if !ok {
			return fmt.Errorf("personality trait %s is missing", name)
		}
		if f.Max <= f.Min {
			return fmt.Errorf("personality trait %s has empty range [%v, %v]", name, f.Min, f.Max)
		}
		for cat := range f.Weights {
			if _, ok := l.Personality.Categories[cat]; !ok {
				return fmt.Errorf("personality trait %s references unknown category %s", name, cat)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
