package store

import (
	"context"

	"gps-canon-service/internal/match"
)

type Player struct {
	PlayerID string `json:"playerId"`
	ClubID   string `json:"clubId"`
	FullName string `json:"fullName"`
}

func (s *Store) UpsertPlayer(ctx context.Context, p Player) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO roster (player_id, club_id, full_name) VALUES (?,?,?)
		 ON CONFLICT(player_id) DO UPDATE SET club_id = excluded.club_id, full_name = excluded.full_name`,
		p.PlayerID, p.ClubID, p.FullName)
	return err
}

// Roster возвращает ростер клуба в виде, который принимает матчер.
func (s *Store) Roster(ctx context.Context, clubID string) ([]match.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, full_name FROM roster WHERE club_id = ? ORDER BY player_id`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []match.Entry
	for rows.Next() {
		var e match.Entry
		if err := rows.Scan(&e.PlayerID, &e.FullName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- ручные привязки строк к игрокам ---

func (s *Store) SetOverride(ctx context.Context, reportID string, rowIndex int, playerID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player_overrides (report_id, row_index, player_id) VALUES (?,?,?)
		 ON CONFLICT(report_id, row_index) DO UPDATE SET player_id = excluded.player_id`,
		reportID, rowIndex, playerID)
	return err
}

func (s *Store) Overrides(ctx context.Context, reportID string) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, player_id FROM player_overrides WHERE report_id = ?`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]string)
	for rows.Next() {
		var idx int
		var pid string
		if err := rows.Scan(&idx, &pid); err != nil {
			return nil, err
		}
		out[idx] = pid
	}
	return out, rows.Err()
}
