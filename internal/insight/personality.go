package insight

import (
	"math"

	"moodlog/internal/model"
)

const neutralTrait = 50

// Personality averages trait scores and rounds to whole points. With no
// scored entries every trait sits at the neutral midpoint.
func Personality(scores []model.PersonalityScores) model.PersonalityScores {
	if len(scores) == 0 {
		return model.PersonalityScores{
			Openness:          neutralTrait,
			Conscientiousness: neutralTrait,
			Extraversion:      neutralTrait,
			Agreeableness:     neutralTrait,
			Neuroticism:       neutralTrait,
		}
	}
	var sum model.PersonalityScores
	for _, s := range scores {
		sum.Openness += s.Openness
		sum.Conscientiousness += s.Conscientiousness
		sum.Extraversion += s.Extraversion
		sum.Agreeableness += s.Agreeableness
		sum.Neuroticism += s.Neuroticism
	}
	n := float64(len(scores))
	return model.PersonalityScores{
		Openness:          math.Round(sum.Openness / n),
		Conscientiousness: math.Round(sum.Conscientiousness / n),
		Extraversion:      math.Round(sum.Extraversion / n),
		Agreeableness:     math.Round(sum.Agreeableness / n),
		Neuroticism:       math.Round(sum.Neuroticism / n),
	}
}
