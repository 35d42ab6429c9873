package models

type Recommendation string

const (
	RecommendationApprove     Recommendation = "approve"
	RecommendationDisapprove  Recommendation = "disapprove"
	RecommendationExemption   Recommendation = "exemption"
	RecommendationUnfavourable Recommendation = "unfavourable"
	RecommendationNewMeeting  Recommendation = "new_meeting"
)

func (r Recommendation) Valid() bool {
	switch r {
	case RecommendationApprove, RecommendationDisapprove, RecommendationExemption,
		RecommendationUnfavourable, RecommendationNewMeeting:
		return true
	}
	return false
}

var recommendationSentences = map[Recommendation]string{
	RecommendationApprove:      "Avis favorable a la reinscription en annee superieure",
	RecommendationDisapprove:   "Avis defavorable a la reinscription",
	RecommendationExemption:    "Avis favorable sous reserve d'une derogation pour inscription supplementaire",
	RecommendationUnfavourable: "Avis reserve, un suivi renforce est demande",
	RecommendationNewMeeting:   "Un nouvel entretien avec le comite de suivi est demande",
}

// Sentence maps the enum to its full human-readable wording, falling back to
// the raw value when unmapped.
func (r Recommendation) Sentence() string {
	if s, ok := recommendationSentences[r]; ok {
		return s
	}
	return string(r)
}
