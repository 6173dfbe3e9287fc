package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"travel-intel/internal/geo"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Use advisory lock to prevent concurrent migrations from multiple services.
	const lockID = 474829301

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS guides (
			id UUID PRIMARY KEY,
			destination TEXT NOT NULL,
			month TEXT NOT NULL,
			status TEXT,
			guide_text TEXT NOT NULL DEFAULT '',
			sources TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS guide_locations (
			guide_id UUID REFERENCES guides(id) ON DELETE CASCADE,
			ord INT,
			name TEXT,
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			description TEXT,
			PRIMARY KEY (guide_id, ord)
		);`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY,
			guide_id UUID REFERENCES guides(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS guides_dest_month_idx ON guides (destination, month, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreateGuide(ctx context.Context, destination, month string) (Guide, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guides(id, destination, month, status) VALUES($1,$2,$3,$4)`,
		id, destination, month, StatusProcessing)
	if err != nil {
		return Guide{}, err
	}
	return Guide{
		ID:          id,
		Destination: destination,
		Month:       month,
		Status:      StatusProcessing,
		CreatedAt:   time.Now(),
	}, nil
}

func (s *PostgresStore) GetGuide(ctx context.Context, id uuid.UUID) (Guide, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, destination, month, status, guide_text, sources, created_at FROM guides WHERE id=$1`, id)
	return scanGuide(row)
}

func (s *PostgresStore) ListGuides(ctx context.Context) ([]Guide, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, destination, month, status, guide_text, sources, created_at
		 FROM guides ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Guide
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// LatestReadyGuide returns the newest ready guide for a destination/month
// pair, used to avoid regenerating identical briefings.
func (s *PostgresStore) LatestReadyGuide(ctx context.Context, destination, month string) (Guide, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, destination, month, status, guide_text, sources, created_at
		 FROM guides WHERE destination=$1 AND month=$2 AND status=$3
		 ORDER BY created_at DESC LIMIT 1`,
		destination, month, StatusReady)
	return scanGuide(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGuide(row rowScanner) (Guide, error) {
	var g Guide
	var sources []string
	err := row.Scan(&g.ID, &g.Destination, &g.Month, &g.Status, &g.GuideText, pq.Array(&sources), &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Guide{}, ErrGuideNotFound
	}
	if err != nil {
		return Guide{}, err
	}
	g.Sources = sources
	return g, nil
}

func (s *PostgresStore) SaveGuideText(ctx context.Context, id uuid.UUID, text string, sources []string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE guides SET guide_text=$1, sources=$2 WHERE id=$3`,
		text, pq.Array(pqStringArray(sources)), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) UpdateGuideText(ctx context.Context, id uuid.UUID, text string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE guides SET guide_text=$1 WHERE id=$2`, text, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) UpdateGuideStatus(ctx context.Context, id uuid.UUID, status GuideStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE guides SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteGuide(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM guides WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SaveLocations replaces the location set of a guide. descriptions is
// positional with locations; missing entries are stored empty.
func (s *PostgresStore) SaveLocations(ctx context.Context, guideID uuid.UUID, locations []geo.Location, descriptions []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM guide_locations WHERE guide_id=$1`, guideID); err != nil {
		return err
	}
	for i, loc := range locations {
		desc := ""
		if i < len(descriptions) {
			desc = descriptions[i]
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO guide_locations(guide_id, ord, name, lat, lon, description) VALUES($1,$2,$3,$4,$5,$6)`,
			guideID, i, loc.Name, loc.Lat, loc.Lon, desc)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ListLocations(ctx context.Context, guideID uuid.UUID) ([]GuideLocation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ord, name, lat, lon, description FROM guide_locations WHERE guide_id=$1 ORDER BY ord`, guideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GuideLocation
	for rows.Next() {
		l := GuideLocation{GuideID: guideID}
		if err := rows.Scan(&l.Ord, &l.Name, &l.Lat, &l.Lon, &l.Description); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveChatMessage(ctx context.Context, guideID uuid.UUID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages(id, guide_id, role, content) VALUES($1,$2,$3,$4)`,
		uuid.New(), guideID, role, content)
	return err
}

func (s *PostgresStore) ListChatMessages(ctx context.Context, guideID uuid.UUID) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_messages WHERE guide_id=$1 ORDER BY created_at ASC`, guideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChatMessage
	for rows.Next() {
		m := ChatMessage{GuideID: guideID}
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGuideNotFound
	}
	return nil
}

func pqStringArray(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	return items
}
