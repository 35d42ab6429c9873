// Package notify resolves the template and recipients of each workflow step.
package notify

import "regexp"

type Template struct {
	Subject string
	Body    string
}

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// Render substitutes ${name} placeholders with the bound values. Unknown
// placeholders become empty strings rather than errors, so templates can
// drift ahead of the code without breaking dispatch.
func Render(s string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		return vars[name]
	})
}

// RenderTemplate applies Render to both parts of a template.
func RenderTemplate(t Template, vars map[string]string) (subject, body string) {
	return Render(t.Subject, vars), Render(t.Body, vars)
}

// Step templates. Bodies are small fixed HTML fragments; variables carry
// names, the access link and the program year.
var (
	InviteCandidate = Template{
		Subject: "Suivi doctoral ${year} - formulaire a completer",
		Body: `<p>Bonjour ${firstName} ${lastName},</p>
<p>Dans le cadre du suivi annuel des doctorants, merci de completer votre
formulaire de suivi en suivant ce lien :</p>
<p><a href="${link}">${link}</a></p>
<p>Cordialement,<br/>L'ecole doctorale</p>`,
	}

	InviteReferent = Template{
		Subject: "Comite de suivi de ${firstName} ${lastName} - evaluation demandee",
		Body: `<p>Bonjour,</p>
<p>Vous etes membre du comite de suivi de ${firstName} ${lastName}.
Le formulaire complete par le doctorant est joint a ce message.</p>
<p>Merci de saisir votre evaluation en suivant ce lien :</p>
<p><a href="${link}">${link}</a></p>
<p>Cordialement,<br/>L'ecole doctorale</p>`,
	}

	AckCandidateSubmission = Template{
		Subject: "Suivi doctoral ${year} - formulaire transmis au comite",
		Body: `<p>Bonjour ${firstName} ${lastName},</p>
<p>Votre formulaire de suivi a bien ete transmis aux membres de votre
comite de suivi.</p>
<p>Cordialement,<br/>L'ecole doctorale</p>`,
	}

	NotifyDirector = Template{
		Subject: "Suivi doctoral - rapport du comite pour ${firstName} ${lastName}",
		Body: `<p>Bonjour,</p>
<p>Le comite de suivi de ${firstName} ${lastName} (${department}) a rendu
son evaluation. Le rapport est joint a ce message.</p>
<p>Cordialement,<br/>L'ecole doctorale</p>`,
	}

	AckReferent = Template{
		Subject: "Comite de suivi de ${firstName} ${lastName} - evaluation enregistree",
		Body: `<p>Bonjour,</p>
<p>L'evaluation du comite de suivi de ${firstName} ${lastName} a bien ete
enregistree et transmise a la direction du departement.</p>
<p>Cordialement,<br/>L'ecole doctorale</p>`,
	}

	FinalReport = Template{
		Subject: "Suivi doctoral ${year} - rapport final",
		Body: `<p>Bonjour ${firstName} ${lastName},</p>
<p>Veuillez trouver ci-joint le rapport final de votre comite de suivi
pour l'annee ${year}.</p>
<p>Cordialement,<br/>L'ecole doctorale</p>`,
	}
)
