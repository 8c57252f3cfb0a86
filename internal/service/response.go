package service

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"moodlog/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// extractJSON pulls the JSON object out of model output that may be wrapped
// in a markdown fence or surrounded by prose.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(s, "{") {
		return s
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

type emotionWire struct {
	Calm        *float64 `json:"calm" validate:"required,gte=0,lte=1"`
	Anger       *float64 `json:"anger" validate:"required,gte=0,lte=1"`
	Stress      *float64 `json:"stress" validate:"required,gte=0,lte=1"`
	Anxiety     *float64 `json:"anxiety" validate:"required,gte=0,lte=1"`
	Sadness     *float64 `json:"sadness" validate:"required,gte=0,lte=1"`
	Happiness   *float64 `json:"happiness" validate:"required,gte=0,lte=1"`
	Excitement  *float64 `json:"excitement" validate:"required,gte=0,lte=1"`
	Hopefulness *float64 `json:"hopefulness" validate:"required,gte=0,lte=1"`
}

func (w *emotionWire) scores() model.EmotionScores {
	return model.EmotionScores{
		Calm:        *w.Calm,
		Anger:       *w.Anger,
		Stress:      *w.Stress,
		Anxiety:     *w.Anxiety,
		Sadness:     *w.Sadness,
		Happiness:   *w.Happiness,
		Excitement:  *w.Excitement,
		Hopefulness: *w.Hopefulness,
	}
}

type personalityWire struct {
	Openness          *float64 `json:"openness" validate:"required,gte=0,lte=100"`
	Conscientiousness *float64 `json:"conscientiousness" validate:"required,gte=0,lte=100"`
	Extraversion      *float64 `json:"extraversion" validate:"required,gte=0,lte=100"`
	Agreeableness     *float64 `json:"agreeableness" validate:"required,gte=0,lte=100"`
	Neuroticism       *float64 `json:"neuroticism" validate:"required,gte=0,lte=100"`
}

type recommendationsWire struct {
	Continue string `json:"continue" validate:"required,max=200"`
	Explore  string `json:"explore" validate:"required,max=200"`
	Consider string `json:"consider" validate:"required,max=200"`
}

type reportWire struct {
	EmotionScores   *emotionWire         `json:"emotion_scores" validate:"required"`
	Themes          []string             `json:"themes" validate:"required,min=3,max=5,dive,required,max=100"`
	Recommendations *recommendationsWire `json:"recommendations" validate:"required"`
	Highlights      []string             `json:"highlights" validate:"required,min=3,max=5,dive,required,max=150"`
	Lowlights       []string             `json:"lowlights" validate:"required,min=3,max=5,dive,required,max=150"`
}

type entryWire struct {
	Mood        *emotionWire     `json:"mood" validate:"required"`
	Personality *personalityWire `json:"personality" validate:"required"`
}

// EntryEvaluation is the per-entry scoring result.
type EntryEvaluation struct {
	Emotions    model.EmotionScores
	Personality model.PersonalityScores
}

func decodeStrict(raw string, v any) error {
	body := extractJSON(raw)
	if body == "" {
		return errors.New("empty response")
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return err
	}
	return validate.Struct(v)
}

// ParseReportPayload validates scorer output against the weekly report shape.
func ParseReportPayload(raw string) (model.ReportPayload, error) {
	var w reportWire
	if err := decodeStrict(raw, &w); err != nil {
		return model.ReportPayload{}, &MalformedResponseError{Raw: raw, Err: err}
	}
	return model.ReportPayload{
		EmotionScores: w.EmotionScores.scores(),
		Themes:        w.Themes,
		Recommendations: model.Recommendations{
			Continue: w.Recommendations.Continue,
			Explore:  w.Recommendations.Explore,
			Consider: w.Recommendations.Consider,
		},
		Highlights: w.Highlights,
		Lowlights:  w.Lowlights,
	}, nil
}

// ParseEntryEvaluation validates scorer output for a single entry.
func ParseEntryEvaluation(raw string) (EntryEvaluation, error) {
	var w entryWire
	if err := decodeStrict(raw, &w); err != nil {
		return EntryEvaluation{}, &MalformedResponseError{Raw: raw, Err: err}
	}
	p := w.Personality
	return EntryEvaluation{
		Emotions: w.Mood.scores(),
		Personality: model.PersonalityScores{
			Openness:          *p.Openness,
			Conscientiousness: *p.Conscientiousness,
			Extraversion:      *p.Extraversion,
			Agreeableness:     *p.Agreeableness,
			Neuroticism:       *p.Neuroticism,
		},
	}, nil
}

func numberSchema(min, max float64) map[string]any {
	return map[string]any{"type": "number", "minimum": min, "maximum": max}
}

func stringSchema(maxLength int) map[string]any {
	return map[string]any{"type": "string", "maxLength": maxLength}
}

func stringListSchema(minItems, maxItems, maxLength int) map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": minItems,
		"maxItems": maxItems,
		"items":    stringSchema(maxLength),
	}
}

func objectSchema(props map[string]any, order []string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             order,
		"additionalProperties": false,
	}
}

func emotionSchema() map[string]any {
	props := map[string]any{}
	for _, k := range model.EmotionKeys {
		props[k] = numberSchema(0, 1)
	}
	return objectSchema(props, model.EmotionKeys)
}

var personalityKeys = []string{"openness", "conscientiousness", "extraversion", "agreeableness", "neuroticism"}

func personalitySchema() map[string]any {
	props := map[string]any{}
	for _, k := range personalityKeys {
		props[k] = numberSchema(0, 100)
	}
	return objectSchema(props, personalityKeys)
}

var WeeklyReportSchema = Schema{
	Name: "weekly_report",
	Definition: objectSchema(map[string]any{
		"emotion_scores": emotionSchema(),
		"themes":         stringListSchema(3, 5, 100),
		"recommendations": objectSchema(map[string]any{
			"continue": stringSchema(200),
			"explore":  stringSchema(200),
			"consider": stringSchema(200),
		}, []string{"continue", "explore", "consider"}),
		"highlights": stringListSchema(3, 5, 150),
		"lowlights":  stringListSchema(3, 5, 150),
	}, []string{"emotion_scores", "themes", "recommendations", "highlights", "lowlights"}),
}

var EntryEvaluationSchema = Schema{
	Name: "entry_evaluation",
	Definition: objectSchema(map[string]any{
		"mood":        emotionSchema(),
		"personality": personalitySchema(),
	}, []string{"mood", "personality"}),
}

func weeklyReportPrompt(entries string) string {
	return `Analyse the following week of journal entries written by one person.

Return:
- emotion_scores: the overall intensity of each emotion across the week, each between 0 and 1 with two decimals.
- themes: 3 to 5 short recurring themes.
- recommendations: one sentence each for what to continue, what to explore and what to consider.
- highlights: 3 to 5 positive moments, specific to the entries.
- lowlights: 3 to 5 difficult moments, specific to the entries.

Address the writer as "you". Do not invent events that are not in the entries.

Entries (separated by ---):

` + entries
}

func entryEvaluationPrompt(content string) string {
	return `Score this journal entry.

mood: intensity of each emotion between 0 and 1 with two decimals.
personality: Big Five traits between 0 and 100 as suggested by the writing.

Entry:

` + content
}
