package models

import "time"

type Department string

const (
	DepartmentMECA Department = "MECA"
	DepartmentINFO Department = "INFO"
	DepartmentCHIM Department = "CHIM"
	DepartmentBIO  Department = "BIO"
	DepartmentPHYS Department = "PHYS"
)

// StoredFile references a file persisted under the candidate's namespace.
type StoredFile struct {
	OriginalName string `bson:"original_name" json:"original_name"`
	StoragePath  string `bson:"storage_path" json:"storage_path"`
}

type CommitteeMember struct {
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
}

// TrainingHours tracks the three doctoral training categories. Total is
// derived and must always equal the sum of the three inputs.
type TrainingHours struct {
	Scientific              int `bson:"scientific" json:"scientific"`
	CrossDisciplinary       int `bson:"cross_disciplinary" json:"cross_disciplinary"`
	ProfessionalIntegration int `bson:"professional_integration" json:"professional_integration"`
	Total                   int `bson:"total" json:"total"`
}

func (h *TrainingHours) Recompute() {
	h.Total = h.Scientific + h.CrossDisciplinary + h.ProfessionalIntegration
}

// Workflow holds the monotonic approval-pipeline flags and their send
// counters. Flags are only ever set to true; counters only increase.
type Workflow struct {
	SentToCandidate     bool `bson:"sent_to_candidate" json:"sent_to_candidate"`
	CandidateValidated  bool `bson:"candidate_validated" json:"candidate_validated"`
	SentToReferents     bool `bson:"sent_to_referents" json:"sent_to_referents"`
	ReferentValidated   bool `bson:"referent_validated" json:"referent_validated"`
	DirectorNotified    bool `bson:"director_notified" json:"director_notified"`
	FinalSent           bool `bson:"final_sent" json:"final_sent"`
	SendCountToCandidate int `bson:"send_count_to_candidate" json:"send_count_to_candidate"`
	SendCountToReferents int `bson:"send_count_to_referents" json:"send_count_to_referents"`
	FinalSendCount       int `bson:"final_send_count" json:"final_send_count"`
}

type Candidate struct {
	ID         string `bson:"_id,omitempty" json:"id"` // uuid
	ExternalID string `bson:"external_id" json:"external_id"`
	Email      string `bson:"email" json:"email"` // normalized, unique
	FirstName  string `bson:"first_name" json:"first_name"`
	LastName   string `bson:"last_name" json:"last_name"`

	ThesisYear            string     `bson:"thesis_year,omitempty" json:"thesis_year,omitempty"`
	ThesisTitle           string     `bson:"thesis_title,omitempty" json:"thesis_title,omitempty"`
	FundingType           string     `bson:"funding_type,omitempty" json:"funding_type,omitempty"`
	FirstRegistrationDate string     `bson:"first_registration_date,omitempty" json:"first_registration_date,omitempty"`
	Department            Department `bson:"department,omitempty" json:"department,omitempty"`

	ResearchUnitName     string `bson:"research_unit_name,omitempty" json:"research_unit_name,omitempty"`
	ResearchUnitDirector string `bson:"research_unit_director,omitempty" json:"research_unit_director,omitempty"`
	TeamName             string `bson:"team_name,omitempty" json:"team_name,omitempty"`
	TeamLeader           string `bson:"team_leader,omitempty" json:"team_leader,omitempty"`
	SupervisorName       string `bson:"supervisor_name,omitempty" json:"supervisor_name,omitempty"`
	SupervisorEmail      string `bson:"supervisor_email,omitempty" json:"supervisor_email,omitempty"`
	CoSupervisor         string `bson:"co_supervisor,omitempty" json:"co_supervisor,omitempty"`

	Member1          CommitteeMember `bson:"member1,omitempty" json:"member1,omitempty"`
	Member2          CommitteeMember `bson:"member2,omitempty" json:"member2,omitempty"`
	AdditionalMember CommitteeMember `bson:"additional_member,omitempty" json:"additional_member,omitempty"`

	Missions             string `bson:"missions,omitempty" json:"missions,omitempty"`
	Publications         string `bson:"publications,omitempty" json:"publications,omitempty"`
	Conferences          string `bson:"conferences,omitempty" json:"conferences,omitempty"`
	Posters              string `bson:"posters,omitempty" json:"posters,omitempty"`
	PublicCommunications string `bson:"public_communications,omitempty" json:"public_communications,omitempty"`
	AdditionalInfo       string `bson:"additional_info,omitempty" json:"additional_info,omitempty"`

	TrainingHours TrainingHours `bson:"training_hours" json:"training_hours"`

	Evaluation Evaluation `bson:"evaluation,omitempty" json:"evaluation,omitempty"`

	Conclusion            string         `bson:"conclusion,omitempty" json:"conclusion,omitempty"`
	Recommendation        Recommendation `bson:"recommendation,omitempty" json:"recommendation,omitempty"`
	RecommendationComment string         `bson:"recommendation_comment,omitempty" json:"recommendation_comment,omitempty"`

	// General upload channel, most recent last, bounded to 2 entries.
	UploadedFiles []StoredFile `bson:"uploaded_files,omitempty" json:"uploaded_files,omitempty"`
	// Single-slot uploaded report, deterministic path keyed by ExternalID.
	UploadedReport *StoredFile `bson:"uploaded_report,omitempty" json:"uploaded_report,omitempty"`
	// Reference to the latest generated PDF, overwritten on every build.
	GeneratedReport *StoredFile `bson:"generated_report,omitempty" json:"generated_report,omitempty"`

	Workflow Workflow `bson:"workflow" json:"workflow"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ReferentEmails returns the non-empty committee member emails, deduplicated,
// in member order.
func (c *Candidate) ReferentEmails() []string {
	seen := make(map[string]struct{}, 3)
	var out []string
	for _, m := range []CommitteeMember{c.Member1, c.Member2, c.AdditionalMember} {
		if m.Email == "" {
			continue
		}
		if _, ok := seen[m.Email]; ok {
			continue
		}
		seen[m.Email] = struct{}{}
		out = append(out, m.Email)
	}
	return out
}

// CandidatePatch is a partial update: nil fields are left untouched.
// Sub-documents (hours, evaluation, workflow) are replaced whole so their
// internal invariants survive partial writes.
type CandidatePatch struct {
	ExternalID *string     `bson:"external_id,omitempty"`
	Email      *string     `bson:"email,omitempty"`
	FirstName  *string     `bson:"first_name,omitempty"`
	LastName   *string     `bson:"last_name,omitempty"`

	ThesisYear            *string     `bson:"thesis_year,omitempty"`
	ThesisTitle           *string     `bson:"thesis_title,omitempty"`
	FundingType           *string     `bson:"funding_type,omitempty"`
	FirstRegistrationDate *string     `bson:"first_registration_date,omitempty"`
	Department            *Department `bson:"department,omitempty"`

	ResearchUnitName     *string `bson:"research_unit_name,omitempty"`
	ResearchUnitDirector *string `bson:"research_unit_director,omitempty"`
	TeamName             *string `bson:"team_name,omitempty"`
	TeamLeader           *string `bson:"team_leader,omitempty"`
	SupervisorName       *string `bson:"supervisor_name,omitempty"`
	SupervisorEmail      *string `bson:"supervisor_email,omitempty"`
	CoSupervisor         *string `bson:"co_supervisor,omitempty"`

	Member1          *CommitteeMember `bson:"member1,omitempty"`
	Member2          *CommitteeMember `bson:"member2,omitempty"`
	AdditionalMember *CommitteeMember `bson:"additional_member,omitempty"`

	Missions             *string `bson:"missions,omitempty"`
	Publications         *string `bson:"publications,omitempty"`
	Conferences          *string `bson:"conferences,omitempty"`
	Posters              *string `bson:"posters,omitempty"`
	PublicCommunications *string `bson:"public_communications,omitempty"`
	AdditionalInfo       *string `bson:"additional_info,omitempty"`

	TrainingHours *TrainingHours `bson:"training_hours,omitempty"`
	Evaluation    *Evaluation    `bson:"evaluation,omitempty"`

	Conclusion            *string         `bson:"conclusion,omitempty"`
	Recommendation        *Recommendation `bson:"recommendation,omitempty"`
	RecommendationComment *string         `bson:"recommendation_comment,omitempty"`

	UploadedFiles   *[]StoredFile `bson:"uploaded_files,omitempty"`
	UploadedReport  *StoredFile   `bson:"uploaded_report,omitempty"`
	GeneratedReport *StoredFile   `bson:"generated_report,omitempty"`

	Workflow *Workflow `bson:"workflow,omitempty"`

	UpdatedAt *time.Time `bson:"updated_at,omitempty"`
}

// Apply mutates c with the non-nil fields of the patch. Used by the
// in-memory repository; the Mongo repository maps the same tags to $set.
func (p *CandidatePatch) Apply(c *Candidate) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&c.ExternalID, p.ExternalID)
	setStr(&c.Email, p.Email)
	setStr(&c.FirstName, p.FirstName)
	setStr(&c.LastName, p.LastName)
	setStr(&c.ThesisYear, p.ThesisYear)
	setStr(&c.ThesisTitle, p.ThesisTitle)
	setStr(&c.FundingType, p.FundingType)
	setStr(&c.FirstRegistrationDate, p.FirstRegistrationDate)
	if p.Department != nil {
		c.Department = *p.Department
	}
	setStr(&c.ResearchUnitName, p.ResearchUnitName)
	setStr(&c.ResearchUnitDirector, p.ResearchUnitDirector)
	setStr(&c.TeamName, p.TeamName)
	setStr(&c.TeamLeader, p.TeamLeader)
	setStr(&c.SupervisorName, p.SupervisorName)
	setStr(&c.SupervisorEmail, p.SupervisorEmail)
	setStr(&c.CoSupervisor, p.CoSupervisor)
	if p.Member1 != nil {
		c.Member1 = *p.Member1
	}
	if p.Member2 != nil {
		c.Member2 = *p.Member2
	}
	if p.AdditionalMember != nil {
		c.AdditionalMember = *p.AdditionalMember
	}
	setStr(&c.Missions, p.Missions)
	setStr(&c.Publications, p.Publications)
	setStr(&c.Conferences, p.Conferences)
	setStr(&c.Posters, p.Posters)
	setStr(&c.PublicCommunications, p.PublicCommunications)
	setStr(&c.AdditionalInfo, p.AdditionalInfo)
	if p.TrainingHours != nil {
		c.TrainingHours = *p.TrainingHours
	}
	if p.Evaluation != nil {
		c.Evaluation = *p.Evaluation
	}
	setStr(&c.Conclusion, p.Conclusion)
	if p.Recommendation != nil {
		c.Recommendation = *p.Recommendation
	}
	setStr(&c.RecommendationComment, p.RecommendationComment)
	if p.UploadedFiles != nil {
		c.UploadedFiles = *p.UploadedFiles
	}
	if p.UploadedReport != nil {
		c.UploadedReport = p.UploadedReport
	}
	if p.GeneratedReport != nil {
		c.GeneratedReport = p.GeneratedReport
	}
	if p.Workflow != nil {
		c.Workflow = *p.Workflow
	}
	if p.UpdatedAt != nil {
		c.UpdatedAt = p.UpdatedAt
	}
}
