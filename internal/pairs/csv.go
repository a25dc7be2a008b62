package pairs

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

var csvHeader = []string{
	"NCT Number",
	"Organization Full Name",
	"Organization Class",
	"Brief Title",
	"Conditions",
	"Interventions_clean",
	"Outcome Measure",
	"Primary Purpose",
	"Start Date",
	"Overall Status_ph2",
	"Overall Status_ph3",
	"label_success",
}

// WriteCSV persists the pair dataset as a flat tabular file consumed
// by training and by the historical dashboard.
func WriteCSV(path string, ps []Pair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pair dataset %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write pair header: %w", err)
	}

	for _, p := range ps {
		row := []string{
			p.NCTID,
			p.OrgFullName,
			p.OrgClass,
			p.BriefTitle,
			p.Conditions,
			p.Intervention,
			p.OutcomeMeasure,
			p.PrimaryPurpose,
			p.StartDate,
			p.Phase2Status,
			p.Phase3Status,
			strconv.Itoa(p.Label),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write pair row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush pair dataset: %w", err)
	}

	log.Info().Str("path", path).Int("pairs", len(ps)).Msg("pair dataset written")
	return nil
}

// ReadCSV loads a previously persisted pair dataset.
func ReadCSV(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pair dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read pair header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("pair dataset has %d columns, want %d", len(header), len(csvHeader))
	}

	var ps []Pair
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read pair row: %w", err)
		}

		label, err := strconv.Atoi(row[11])
		if err != nil {
			return nil, fmt.Errorf("parse pair label %q: %w", row[11], err)
		}
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("pair label %d out of range, want 0 or 1", label)
		}

		ps = append(ps, Pair{
			NCTID:          row[0],
			OrgFullName:    row[1],
			OrgClass:       row[2],
			BriefTitle:     row[3],
			Conditions:     row[4],
			Intervention:   row[5],
			OutcomeMeasure: row[6],
			PrimaryPurpose: row[7],
			StartDate:      row[8],
			Phase2Status:   row[9],
			Phase3Status:   row[10],
			Label:          label,
		})
	}

	return ps, nil
}
