package models

type Rating string

const (
	RatingNegative     Rating = "negative"
	RatingMixed        Rating = "mixed"
	RatingPositive     Rating = "positive"
	RatingNotAddressed Rating = "not_addressed"
)

func (r Rating) Valid() bool {
	switch r {
	case RatingNegative, RatingMixed, RatingPositive, RatingNotAddressed:
		return true
	}
	return false
}

const NumQuestions = 17

// Questions holds the committee evaluation grid, indexed 0..16.
var Questions = [NumQuestions]string{
	"Avancement des travaux de recherche par rapport au calendrier initial",
	"Clarte de la problematique scientifique et des objectifs de la these",
	"Maitrise de l'etat de l'art et positionnement des contributions",
	"Qualite et regularite de la production scientifique (articles, actes)",
	"Participation aux conferences, seminaires et ecoles thematiques",
	"Qualite de la presentation orale devant le comite",
	"Capacite a repondre aux questions et a argumenter les choix effectues",
	"Autonomie dans la conduite des travaux",
	"Qualite de l'encadrement et frequence des echanges avec la direction",
	"Integration dans l'unite de recherche et dans l'equipe",
	"Suivi du plan de formation doctorale (heures validees)",
	"Competences transverses acquises (communication, gestion de projet)",
	"Adequation des moyens materiels et financiers au projet",
	"Equilibre entre activites de recherche et activites complementaires",
	"Perspectives de valorisation des travaux (brevets, logiciels, transfert)",
	"Preparation du projet professionnel apres la these",
	"Calendrier previsionnel de fin de these et faisabilite de la soutenance",
}

type Answer struct {
	Rating  Rating `bson:"rating,omitempty" json:"rating,omitempty"`
	Comment string `bson:"comment,omitempty" json:"comment,omitempty"`
}

func (a Answer) Empty() bool { return a.Rating == "" && a.Comment == "" }

type Evaluation [NumQuestions]Answer

// Answered reports whether at least one question carries a rating or comment.
func (e Evaluation) Answered() bool {
	for _, a := range e {
		if !a.Empty() {
			return true
		}
	}
	return false
}

// Complete reports whether every question carries a valid rating, the
// condition for committee submission.
func (e Evaluation) Complete() bool {
	for _, a := range e {
		if !a.Rating.Valid() {
			return false
		}
	}
	return true
}
