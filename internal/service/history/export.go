package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
)

// Columns is the CSV header, in order.
var Columns = []string{
	"Date", "Category", "Breed", "Stage", "Count",
	"Breeding Females", "Breeding Males",
	"Juvenile Males", "Juvenile Females", "Juvenile Unknown",
}

// LatestFilename names the export of the snapshot dated date.
func LatestFilename(date models.Date) string {
	return fmt.Sprintf("poultry-snapshot-%s.csv", date)
}

// RangeFilename names the export of a date range.
func RangeFilename(start, end models.Date) string {
	return fmt.Sprintf("poultry-tracker-%s-to-%s.csv", start, end)
}

// WriteCSV writes the header and every record with at least one count above
// zero.
func WriteCSV(w io.Writer, records []models.HistoryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("%w: write header: %w", models.ErrExportFailure, err)
	}
	for _, r := range records {
		if r.IsEmpty() {
			continue
		}
		row := []string{
			string(r.Date), r.Category, r.Breed, r.Stage, itoa(r.Count),
			itoa(r.BreedingFemales), itoa(r.BreedingMales),
			itoa(r.JuvenileMales), itoa(r.JuvenileFemales), itoa(r.JuvenileUnknown),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: write row: %w", models.ErrExportFailure, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flush csv: %w", models.ErrExportFailure, err)
	}
	return nil
}

// ExportFile writes records to dir/name. The file appears complete or not
// at all.
func ExportFile(dir, name string, records []models.HistoryRecord) (path string, err error) {
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create export directory: %w", models.ErrExportFailure, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", models.ErrExportFailure, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteCSV(tmp, records); err != nil {
		return "", err
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("%w: sync export: %w", models.ErrExportFailure, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: close export: %w", models.ErrExportFailure, err)
	}

	path = filepath.Join(dir, name)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("%w: rename export: %w", models.ErrExportFailure, err)
	}
	return path, nil
}

// LatestExport returns the records of the latest snapshot and the filename to
// save them under. An empty store is named after today.
func (s *Service) LatestExport(ctx context.Context, today models.Date) (string, []models.HistoryRecord, error) {
	date, records, err := s.LatestSnapshot(ctx)
	if err != nil {
		return "", nil, err
	}
	if date.IsZero() {
		date = today
	}
	return LatestFilename(date), records, nil
}

// RangeExport returns the records of q and the filename to save them under.
func (s *Service) RangeExport(ctx context.Context, q Query) (string, []models.HistoryRecord, error) {
	records, err := s.History(ctx, q)
	if err != nil {
		return "", nil, err
	}
	return RangeFilename(q.Start, q.End), records, nil
}

// ExportLatest writes the latest snapshot into dir and returns the file path.
func (s *Service) ExportLatest(ctx context.Context, dir string, today models.Date) (string, error) {
	name, records, err := s.LatestExport(ctx, today)
	if err != nil {
		return "", err
	}
	return s.export(dir, name, records)
}

// ExportRange writes the records of q into dir and returns the file path.
func (s *Service) ExportRange(ctx context.Context, dir string, q Query) (string, error) {
	name, records, err := s.RangeExport(ctx, q)
	if err != nil {
		return "", err
	}
	return s.export(dir, name, records)
}

func (s *Service) export(dir, name string, records []models.HistoryRecord) (string, error) {
	path, err := ExportFile(dir, name, records)
	if err != nil {
		s.logger.Error("export failed", zap.String("file", name), zap.Error(err))
		return "", err
	}
	s.logger.Info("export written", zap.String("path", path), zap.Int("records", len(records)))
	return path, nil
}

func itoa(c models.Count) string { return strconv.Itoa(int(c)) }
