// Package sqlite stores daily snapshots in a single SQLite file through the
// pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

const selectRows = `
SELECT d.id, d.date, d.breed, d.stage, d.count, d.created_at,
       b.females, b.males, j.males, j.females, j.unknown
FROM daily_counts d
LEFT JOIN breeders b ON b.daily_count_id = d.id
LEFT JOIN juveniles j ON j.daily_count_id = d.id`

const orderRows = ` ORDER BY d.date, d.breed, d.stage`

// Store implements repository.Store on SQLite.
type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// Open creates the database file and its directory if needed and migrates
// the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := path + "?" + pragmas
	if strings.Contains(path, "?") {
		dsn = path + "&" + pragmas
	}

	if err := runMigrations(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer for the whole file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("sqlite store ready", zap.String("path", path))
	return &Store{db: db, now: time.Now, logger: logger}, nil
}

func (s *Store) ReplaceDay(ctx context.Context, date models.Date, rows []models.DailyCount) ([]string, error) {
	prepared, err := repository.Prepare(date, rows, s.now())
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, repository.Fail("begin transaction", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM breeders WHERE daily_count_id IN (SELECT id FROM daily_counts WHERE date = ?)`,
		`DELETE FROM juveniles WHERE daily_count_id IN (SELECT id FROM daily_counts WHERE date = ?)`,
		`DELETE FROM daily_counts WHERE date = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, string(date)); err != nil {
			return nil, repository.Fail("delete day", err)
		}
	}

	ids := make([]string, 0, len(prepared))
	for _, r := range prepared {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO daily_counts (id, date, breed, stage, count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, string(r.Date), r.Breed, r.Stage, int64(r.Count), r.CreatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return nil, repository.Fail("insert daily count", err)
		}
		if r.Breeders != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO breeders (id, daily_count_id, females, males) VALUES (?, ?, ?, ?)`,
				repository.NewID(), r.ID, int64(r.Breeders.Females), int64(r.Breeders.Males),
			); err != nil {
				return nil, repository.Fail("insert breeders", err)
			}
		}
		if r.Juveniles != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO juveniles (id, daily_count_id, males, females, unknown) VALUES (?, ?, ?, ?, ?)`,
				repository.NewID(), r.ID, int64(r.Juveniles.Males), int64(r.Juveniles.Females), int64(r.Juveniles.Unknown),
			); err != nil {
				return nil, repository.Fail("insert juveniles", err)
			}
		}
		ids = append(ids, r.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, repository.Fail("commit day", err)
	}

	s.logger.Debug("replaced day", zap.String("date", string(date)), zap.Int("rows", len(ids)))
	return ids, nil
}

func (s *Store) Range(ctx context.Context, q models.RangeQuery) ([]models.DailyCount, error) {
	query := selectRows + ` WHERE d.date >= ? AND d.date <= ?`
	args := []any{string(q.Start), string(q.End)}
	if q.Breed != "" {
		query += ` AND d.breed = ?`
		args = append(args, q.Breed)
	}

	rows, err := queryRows(ctx, s.db, query+orderRows, args...)
	if err != nil {
		return nil, repository.Fail("query range", err)
	}
	return rows, nil
}

func (s *Store) Latest(ctx context.Context) ([]models.DailyCount, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, repository.Fail("begin transaction", err)
	}
	defer tx.Rollback()

	date, err := latestDate(ctx, tx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, repository.Fail("query latest date", err)
	}

	rows, err := queryRows(ctx, tx, selectRows+` WHERE d.date = ?`+orderRows, string(date))
	if err != nil {
		return nil, repository.Fail("query latest", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, repository.Fail("commit read", err)
	}
	return rows, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.DailyCount, error) {
	rows, err := queryRows(ctx, s.db, selectRows+` WHERE d.id = ?`, id)
	if err != nil {
		return models.DailyCount{}, repository.Fail("get daily count", err)
	}
	if len(rows) == 0 {
		return models.DailyCount{}, repository.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) LatestDate(ctx context.Context) (models.Date, error) {
	date, err := latestDate(ctx, s.db)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", repository.Fail("query latest date", err)
	}
	return date, err
}

func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, repository.Fail("begin transaction", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_counts`).Scan(&n); err != nil {
		return 0, repository.Fail("count rows", err)
	}
	for _, q := range []string{`DELETE FROM breeders`, `DELETE FROM juveniles`, `DELETE FROM daily_counts`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return 0, repository.Fail("delete all", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, repository.Fail("commit delete", err)
	}

	s.logger.Info("deleted all snapshots", zap.Int("rows", n))
	return n, nil
}

// Close closes the database handle.
func (s *Store) Close(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func latestDate(ctx context.Context, q querier) (models.Date, error) {
	var date sql.NullString
	if err := q.QueryRowContext(ctx, `SELECT MAX(date) FROM daily_counts`).Scan(&date); err != nil {
		return "", err
	}
	if !date.Valid || date.String == "" {
		return "", repository.ErrNotFound
	}
	return models.Date(date.String), nil
}

func queryRows(ctx context.Context, q querier, query string, args ...any) ([]models.DailyCount, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DailyCount
	for rows.Next() {
		var (
			r                          models.DailyCount
			date, createdAt            string
			count                      int64
			bFemales, bMales           sql.NullInt64
			jMales, jFemales, jUnknown sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &date, &r.Breed, &r.Stage, &count, &createdAt,
			&bFemales, &bMales, &jMales, &jFemales, &jUnknown); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		r.Date = models.Date(date)
		r.Count = models.Count(count)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = t
		}
		if bFemales.Valid {
			r.Breeders = &models.Breeders{Females: models.Count(bFemales.Int64), Males: models.Count(bMales.Int64)}
		}
		if jMales.Valid {
			r.Juveniles = &models.Juvenile{
				Males:   models.Count(jMales.Int64),
				Females: models.Count(jFemales.Int64),
				Unknown: models.Count(jUnknown.Int64),
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily counts: %w", err)
	}
	return out, nil
}

var _ repository.Store = (*Store)(nil)
