package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// Column names as they appear in the registry CSV export.
const (
	colNCTID          = "NCT Number"
	colOrgFullName    = "Organization Full Name"
	colOrgClass       = "Organization Class"
	colBriefTitle     = "Brief Title"
	colConditions     = "Conditions"
	colInterventions  = "Interventions"
	colMeshTerms      = "Medical Subject Headings"
	colOutcomeMeasure = "Outcome Measure"
	colPrimaryPurpose = "Primary Purpose"
	colPhases         = "Phases"
	colOverallStatus  = "Overall Status"
	colStartDate      = "Start Date"
)

// LoadCSV reads a registry export file into Study records. Columns are
// resolved by header name, so column order does not matter; a column
// missing from the export yields empty strings for that field rather
// than an error. Rows with a malformed cell count are skipped.
func LoadCSV(path string) ([]Study, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry export %s: %w", path, err)
	}
	defer f.Close()

	return readCSV(f)
}

// WriteCSV persists studies in the registry export column layout, so
// a fetched snapshot can be fed back through LoadCSV.
func WriteCSV(path string, studies []Study) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create registry export %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		colNCTID, colOrgFullName, colOrgClass, colBriefTitle,
		colConditions, colInterventions, colMeshTerms, colOutcomeMeasure,
		colPrimaryPurpose, colPhases, colOverallStatus, colStartDate,
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write registry header: %w", err)
	}

	for _, s := range studies {
		row := []string{
			s.NCTID, s.OrgFullName, s.OrgClass, s.BriefTitle,
			s.Conditions, s.Interventions, s.MeshTerms, s.OutcomeMeasure,
			s.PrimaryPurpose, s.Phases, s.OverallStatus, s.StartDate,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write registry row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush registry export: %w", err)
	}

	log.Info().Str("path", path).Int("studies", len(studies)).Msg("registry export written")
	return nil
}

func readCSV(r io.Reader) ([]Study, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validated per row below

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read registry header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var studies []Study
	var skipped int
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read registry row: %w", err)
		}
		if len(row) < len(header) {
			skipped++
			continue
		}

		studies = append(studies, Study{
			NCTID:          field(row, colNCTID),
			OrgFullName:    field(row, colOrgFullName),
			OrgClass:       field(row, colOrgClass),
			BriefTitle:     field(row, colBriefTitle),
			Conditions:     field(row, colConditions),
			Interventions:  field(row, colInterventions),
			MeshTerms:      field(row, colMeshTerms),
			OutcomeMeasure: field(row, colOutcomeMeasure),
			PrimaryPurpose: field(row, colPrimaryPurpose),
			Phases:         field(row, colPhases),
			OverallStatus:  field(row, colOverallStatus),
			StartDate:      field(row, colStartDate),
		})
	}

	if skipped > 0 {
		log.Warn().Int("rows", skipped).Msg("skipped short registry rows")
	}
	log.Info().Int("studies", len(studies)).Msg("registry export loaded")

	return studies, nil
}
