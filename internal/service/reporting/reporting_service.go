package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/domain/tally"
	"github.com/mamadbah2/flocktracker/internal/service/history"
)

// SnapshotLoader returns the latest stored snapshot.
type SnapshotLoader interface {
	Load(ctx context.Context) (models.CountModel, models.Date, error)
}

// RecordSource returns the latest stored snapshot as flat records.
type RecordSource interface {
	Latest(ctx context.Context) ([]models.HistoryRecord, error)
}

// SheetWriter is the spreadsheet the report is published to.
type SheetWriter interface {
	ReplaceRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// ErrNoSheet is returned by PublishLatest when no sheet is configured.
var ErrNoSheet = errors.New("no sheet configured")

// Service builds the daily flock report.
type Service struct {
	snapshots  SnapshotLoader
	records    RecordSource
	taxonomy   *models.Taxonomy
	sheet        SheetWriter
	sheetRange   string
	historyRange string
	logger       *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(snapshots SnapshotLoader, records RecordSource, taxonomy *models.Taxonomy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{snapshots: snapshots, records: records, taxonomy: taxonomy, logger: logger}
}

// WithSheet enables publishing to sheetRange through w.
func (s *Service) WithSheet(w SheetWriter, sheetRange string) *Service {
	s.sheet = w
	s.sheetRange = sheetRange
	return s
}

// WithHistory also appends each published day to historyRange, once per day.
func (s *Service) WithHistory(historyRange string) *Service {
	s.historyRange = historyRange
	return s
}

// DailySummary formats the totals of the latest stored snapshot.
func (s *Service) DailySummary(ctx context.Context) (string, error) {
	model, date, err := s.snapshots.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load snapshot for report: %w", err)
	}
	if date.IsZero() {
		return "Flock report: no snapshot saved yet.", nil
	}
	return FormatSummary(date, tally.Summarize(model, s.taxonomy)), nil
}

// FormatSummary renders a summary as plain text. Empty stages, categories
// and breeds are left out.
func FormatSummary(date models.Date, sum tally.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flock report %s\n", date)
	fmt.Fprintf(&b, "Total birds: %d\n", sum.Total)
	fmt.Fprintf(&b, "Breeders: %d females, %d males\n", sum.BreedingFemales, sum.BreedingMales)
	fmt.Fprintf(&b, "Juveniles: %d (%d males, %d females, %d unknown)\n",
		sum.Juvenile, sum.JuvenileMales, sum.JuvenileFemales, sum.JuvenileUnknown)

	var stages []string
	for _, st := range sum.Stages {
		if st.Total > 0 {
			stages = append(stages, fmt.Sprintf("%s %d", st.Name, st.Total))
		}
	}
	if len(stages) > 0 {
		fmt.Fprintf(&b, "Stages: %s\n", strings.Join(stages, ", "))
	}

	for _, c := range sum.Categories {
		if c.Total == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %d\n", c.Name, c.Total)
		for _, breed := range c.Breeds {
			if breed.Total > 0 {
				fmt.Fprintf(&b, "  %s: %d\n", breed.Name, breed.Total)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// PublishLatest overwrites the configured sheet range with the latest
// snapshot, header included, and returns the number of data rows.
func (s *Service) PublishLatest(ctx context.Context) (int, error) {
	if s.sheet == nil {
		return 0, ErrNoSheet
	}
	records, err := s.records.Latest(ctx)
	if err != nil {
		return 0, fmt.Errorf("load records for sheet: %w", err)
	}

	rows := SheetRows(records)
	if err := s.sheet.ReplaceRange(ctx, s.sheetRange, rows); err != nil {
		return 0, fmt.Errorf("publish latest snapshot: %w", err)
	}
	s.logger.Info("latest snapshot published", zap.String("range", s.sheetRange), zap.Int("rows", len(rows)-1))

	if err := s.archive(ctx, rows); err != nil {
		return len(rows) - 1, fmt.Errorf("archive latest snapshot: %w", err)
	}
	return len(rows) - 1, nil
}

// archive appends the data rows to the history range unless their day is
// already there. An empty history range gets the header first.
func (s *Service) archive(ctx context.Context, rows [][]interface{}) error {
	if s.historyRange == "" || len(rows) < 2 {
		return nil
	}
	date := rows[1][0]

	existing, err := s.sheet.ReadRange(ctx, s.historyRange)
	if err != nil {
		return err
	}
	for _, row := range existing {
		if len(row) > 0 && fmt.Sprint(row[0]) == fmt.Sprint(date) {
			s.logger.Debug("day already archived", zap.Any("date", date))
			return nil
		}
	}

	data := rows[1:]
	if len(existing) == 0 {
		data = rows
	}
	if err := s.sheet.AppendRows(ctx, s.historyRange, data); err != nil {
		return err
	}
	s.logger.Info("snapshot archived", zap.String("range", s.historyRange), zap.Any("date", date))
	return nil
}

// SheetRows lays records out like the CSV export.
func SheetRows(records []models.HistoryRecord) [][]interface{} {
	header := make([]interface{}, len(history.Columns))
	for i, c := range history.Columns {
		header[i] = c
	}
	rows := [][]interface{}{header}
	for _, r := range records {
		if r.IsEmpty() {
			continue
		}
		rows = append(rows, []interface{}{
			string(r.Date), r.Category, r.Breed, r.Stage, int(r.Count),
			int(r.BreedingFemales), int(r.BreedingMales),
			int(r.JuvenileMales), int(r.JuvenileFemales), int(r.JuvenileUnknown),
		})
	}
	return rows
}
