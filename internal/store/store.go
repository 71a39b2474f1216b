// Package store — персистентность сервиса поверх SQLite (чистый Go
// драйвер modernc). Профили, отчёты, ростер и ручные привязки игроков.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"gps-canon-service/internal/ingest"
	"gps-canon-service/internal/profile"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// одного писателя достаточно, WAL спасает читателей
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	const schema = `
PRAGMA journal_mode = WAL;

CREATE TABLE IF NOT EXISTS profiles (
	id          TEXT PRIMARY KEY,
	club_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	gps_system  TEXT NOT NULL,
	columns     TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE (club_id, name)
);

CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	profile_id    TEXT NOT NULL REFERENCES profiles(id),
	file_name     TEXT NOT NULL,
	canon_version TEXT NOT NULL,
	raw_data      TEXT NOT NULL,
	snapshot      TEXT NOT NULL,
	canonical     TEXT NOT NULL,
	import_meta   TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_profile ON reports(profile_id);

CREATE TABLE IF NOT EXISTS roster (
	player_id  TEXT PRIMARY KEY,
	club_id    TEXT NOT NULL,
	full_name  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_roster_club ON roster(club_id);

CREATE TABLE IF NOT EXISTS player_overrides (
	report_id  TEXT NOT NULL REFERENCES reports(id),
	row_index  INTEGER NOT NULL,
	player_id  TEXT NOT NULL,
	PRIMARY KEY (report_id, row_index)
);
`
	_, err := s.db.Exec(schema)
	return err
}

// --- профили ---

func (s *Store) CreateProfile(ctx context.Context, p *profile.Profile) error {
	cols, err := json.Marshal(p.Columns)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, club_id, name, gps_system, columns, created_at) VALUES (?,?,?,?,?,?)`,
		p.ID, p.ClubID, p.Name, p.GpsSystem, string(cols), p.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) Profile(ctx context.Context, id string) (*profile.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, club_id, name, gps_system, columns, created_at FROM profiles WHERE id = ?`, id)
	return scanProfile(row)
}

func (s *Store) Profiles(ctx context.Context, clubID string) ([]*profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, club_id, name, gps_system, columns, created_at FROM profiles WHERE club_id = ? ORDER BY created_at`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanProfile(r scanner) (*profile.Profile, error) {
	var p profile.Profile
	var cols, createdAt string
	err := r.Scan(&p.ID, &p.ClubID, &p.Name, &p.GpsSystem, &cols, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cols), &p.Columns); err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &p, nil
}

// ReportCountReferencing — сколько отчётов ссылается на профиль.
// Источник истины для правила заморозки.
func (s *Store) ReportCountReferencing(ctx context.Context, profileID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE profile_id = ?`, profileID).Scan(&n)
	return n, err
}

// UpdateProfileColumns пишет новые колонки, перепроверяя правило
// заморозки внутри транзакции: между валидацией и записью мог появиться
// первый отчёт.
func (s *Store) UpdateProfileColumns(ctx context.Context, p *profile.Profile, structural bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if structural {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reports WHERE profile_id = ?`, p.ID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return profile.ErrProfileFrozen
		}
	}

	cols, err := json.Marshal(p.Columns)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE profiles SET columns = ? WHERE id = ?`, string(cols), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// --- отчёты ---

type Report struct {
	ID           string            `json:"id"`
	ProfileID    string            `json:"profileId"`
	FileName     string            `json:"fileName"`
	CanonVersion string            `json:"canonVersion"`
	RawData      ingest.RawTable   `json:"rawData"`
	Snapshot     profile.Snapshot  `json:"snapshot"`
	Canonical    ingest.Canonical  `json:"canonical"`
	ImportMeta   ingest.ImportMeta `json:"importMeta"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func (s *Store) SaveReport(ctx context.Context, r *Report) error {
	raw, err := json.Marshal(r.RawData)
	if err != nil {
		return err
	}
	snap, err := json.Marshal(r.Snapshot)
	if err != nil {
		return err
	}
	canonical, err := json.Marshal(r.Canonical)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(r.ImportMeta)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, profile_id, file_name, canon_version, raw_data, snapshot, canonical, import_meta, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.ProfileID, r.FileName, r.CanonVersion,
		string(raw), string(snap), string(canonical), string(meta),
		r.CreatedAt.Format(time.RFC3339Nano), r.UpdatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) Report(ctx context.Context, id string) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, file_name, canon_version, raw_data, snapshot, canonical, import_meta, created_at, updated_at
		 FROM reports WHERE id = ?`, id)

	var r Report
	var raw, snap, canonical, meta, createdAt, updatedAt string
	err := row.Scan(&r.ID, &r.ProfileID, &r.FileName, &r.CanonVersion, &raw, &snap, &canonical, &meta, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &r.RawData); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(snap), &r.Snapshot); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(canonical), &r.Canonical); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meta), &r.ImportMeta); err != nil {
		return nil, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &r, nil
}

// ReplaceCanonical — результат переобработки целиком, всё или ничего:
// либо новые canonical и importMeta закоммичены вместе, либо прежнее
// состояние не тронуто.
func (s *Store) ReplaceCanonical(ctx context.Context, reportID string, c ingest.Canonical, m ingest.ImportMeta) error {
	canonical, err := json.Marshal(c)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(m)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE reports SET canonical = ?, import_meta = ?, updated_at = ? WHERE id = ?`,
		string(canonical), string(meta), time.Now().UTC().Format(time.RFC3339Nano), reportID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
