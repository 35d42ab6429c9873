package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nboulif/doctrack/internal/models"
	"github.com/nboulif/doctrack/internal/utils"
)

// RowError describes why a single CSV row was not imported. Line numbers are
// 1-based and count the header line.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type ImportSummary struct {
	Inserted int        `json:"inserted"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

type ImportService interface {
	ImportCSV(ctx context.Context, r io.Reader) (*ImportSummary, error)
}

type importService struct {
	candidates CandidateService
	log        *logrus.Logger
}

func NewImportService(candidates CandidateService, log *logrus.Logger) ImportService {
	if log == nil {
		log = logrus.New()
	}
	return &importService{candidates: candidates, log: log}
}

// ImportCSV reads the annual enrollment export. Bad rows are skipped and
// reported, never fatal; only an unreadable file or header fails the call.
func (s *importService) ImportCSV(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	const op = "ImportService.ImportCSV"

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "failed to read CSV header", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"externalId", "email"} {
		if _, ok := cols[required]; !ok {
			return nil, utils.E(utils.CodeInvalidArgument, op,
				fmt.Sprintf("CSV header is missing the %q column", required), nil)
		}
	}

	summary := &ImportSummary{}
	seen := make(map[string]int) // normalized email -> first line
	line := 1

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, RowError{Line: line, Reason: "malformed row"})
			continue
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		email := utils.NormalizeEmail(field("email"))
		externalID := field("externalId")
		if email == "" || externalID == "" {
			summary.Skipped++
			summary.Errors = append(summary.Errors, RowError{Line: line, Reason: "missing externalId or email"})
			continue
		}
		if first, dup := seen[email]; dup {
			summary.Skipped++
			summary.Errors = append(summary.Errors, RowError{
				Line: line, Reason: fmt.Sprintf("duplicate of line %d", first),
			})
			continue
		}
		seen[email] = line

		cand := &models.Candidate{
			ExternalID:            externalID,
			Email:                 email,
			FirstName:             field("firstName"),
			LastName:              field("lastName"),
			ThesisYear:            field("thesisYear"),
			ThesisTitle:           field("thesisTitle"),
			FundingType:           field("fundingType"),
			FirstRegistrationDate: field("firstRegistrationDate"),
			Department:            models.Department(field("department")),
			ResearchUnitName:      field("researchUnitName"),
			ResearchUnitDirector:  field("researchUnitDirector"),
			TeamName:              field("teamName"),
			TeamLeader:            field("teamLeader"),
			SupervisorName:        field("supervisorName"),
			SupervisorEmail:       field("supervisorEmail"),
			Member1:               models.CommitteeMember{Name: field("member1Name"), Email: field("member1Email")},
			Member2:               models.CommitteeMember{Name: field("member2Name"), Email: field("member2Email")},
		}

		if _, err := s.candidates.Create(ctx, cand); err != nil {
			summary.Skipped++
			if utils.IsCode(err, utils.CodeConflict) {
				summary.Errors = append(summary.Errors, RowError{Line: line, Reason: "email already registered"})
			} else {
				s.log.WithError(err).WithField("line", line).Error("import row failed")
				summary.Errors = append(summary.Errors, RowError{Line: line, Reason: err.Error()})
			}
			continue
		}
		summary.Inserted++
	}

	s.log.WithFields(logrus.Fields{
		"inserted": summary.Inserted, "skipped": summary.Skipped,
	}).Info("CSV import finished")
	return summary, nil
}
