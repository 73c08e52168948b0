package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/chriserin/story/internal/model"
)

// Change is the sync marker printed for a file.
type Change string

const (
	Tracked Change = "trk"
	Added   Change = "new"
	Updated Change = "upd"
	Removed Change = "del"
)

type ScenarioNotFoundError struct {
	ID int64
}

func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario %d not found", e.ID)
}

// Hash fingerprints file content for change detection.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SaveStory indexes story under its path. A file whose stored hash equals
// hash is left alone. Scenarios keep their ids by position, so outcomes
// survive edits that do not reorder scenarios.
func SaveStory(db *sql.DB, story *model.Story, hash string) (Change, error) {
	var fileID int64
	var stored string
	change := Updated
	err := db.QueryRow(`SELECT id, content_hash FROM files WHERE file_path = ?`, story.Path).Scan(&fileID, &stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		change = Added
	case err != nil:
		return "", fmt.Errorf("querying %s: %w", story.Path, err)
	case stored == hash:
		return Tracked, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning save of %s: %w", story.Path, err)
	}
	defer tx.Rollback()

	if change == Added {
		res, err := tx.Exec(`INSERT INTO files (file_path, content_hash, description) VALUES (?, ?, ?)`,
			story.Path, hash, story.Description)
		if err != nil {
			return "", fmt.Errorf("inserting %s: %w", story.Path, err)
		}
		if fileID, err = res.LastInsertId(); err != nil {
			return "", err
		}
	} else {
		_, err := tx.Exec(`UPDATE files SET content_hash = ?, description = ?, updated_at = datetime('now') WHERE id = ?`,
			hash, story.Description, fileID)
		if err != nil {
			return "", fmt.Errorf("updating %s: %w", story.Path, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM meta WHERE file_id = ? AND scenario_id IS NULL`, fileID); err != nil {
		return "", fmt.Errorf("clearing meta of %s: %w", story.Path, err)
	}
	if err := insertMeta(tx, fileID, nil, story.Meta); err != nil {
		return "", err
	}
	if err := saveScenarios(tx, fileID, story.Scenarios); err != nil {
		return "", fmt.Errorf("saving scenarios of %s: %w", story.Path, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing %s: %w", story.Path, err)
	}
	return change, nil
}

func saveScenarios(tx *sql.Tx, fileID int64, scenarios []model.Scenario) error {
	existing, err := scenarioIDs(tx, fileID)
	if err != nil {
		return err
	}
	for pos, sc := range scenarios {
		rows := 0
		if sc.Examples != nil {
			rows = sc.Examples.RowCount()
		}
		id, ok := existing[pos]
		if ok {
			delete(existing, pos)
			if _, err := tx.Exec(`UPDATE scenarios SET title = ?, example_rows = ?, updated_at = datetime('now') WHERE id = ?`,
				sc.Title, rows, id); err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM steps WHERE scenario_id = ?`, id); err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM meta WHERE scenario_id = ?`, id); err != nil {
				return err
			}
		} else {
			res, err := tx.Exec(`INSERT INTO scenarios (file_id, position, title, example_rows) VALUES (?, ?, ?, ?)`,
				fileID, pos, sc.Title, rows)
			if err != nil {
				return err
			}
			if id, err = res.LastInsertId(); err != nil {
				return err
			}
		}
		for i, step := range sc.Steps {
			if _, err := tx.Exec(`INSERT INTO steps (scenario_id, position, text) VALUES (?, ?, ?)`, id, i, step); err != nil {
				return err
			}
		}
		if err := insertMeta(tx, fileID, &id, sc.Meta); err != nil {
			return err
		}
	}
	for _, id := range existing {
		if err := deleteScenario(tx, id); err != nil {
			return err
		}
	}
	return nil
}

func scenarioIDs(tx *sql.Tx, fileID int64) (map[int]int64, error) {
	rows, err := tx.Query(`SELECT id, position FROM scenarios WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := map[int]int64{}
	for rows.Next() {
		var id int64
		var pos int
		if err := rows.Scan(&id, &pos); err != nil {
			return nil, err
		}
		ids[pos] = id
	}
	return ids, rows.Err()
}

func insertMeta(tx *sql.Tx, fileID int64, scenarioID *int64, meta model.Meta) error {
	for i, name := range meta.Names() {
		_, err := tx.Exec(`INSERT INTO meta (file_id, scenario_id, position, name, value) VALUES (?, ?, ?, ?, ?)`,
			fileID, scenarioID, i, name, meta.Property(name))
		if err != nil {
			return fmt.Errorf("inserting meta %s: %w", name, err)
		}
	}
	return nil
}

func deleteScenario(tx *sql.Tx, id int64) error {
	for _, stmt := range []string{
		`DELETE FROM outcomes WHERE scenario_id = ?`,
		`DELETE FROM steps WHERE scenario_id = ?`,
		`DELETE FROM meta WHERE scenario_id = ?`,
		`DELETE FROM scenarios WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMissing drops indexed files whose path is not in present and returns
// the dropped paths in order.
func RemoveMissing(db *sql.DB, present []string) ([]string, error) {
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}

	rows, err := db.Query(`SELECT id, file_path FROM files`)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	gone := map[string]int64{}
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		if !keep[path] {
			gone[path] = id
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var removed []string
	for path, id := range gone {
		if err := removeFile(db, id); err != nil {
			return nil, fmt.Errorf("removing %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	sort.Strings(removed)
	return removed, nil
}

func removeFile(db *sql.DB, fileID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ids, err := scenarioIDs(tx, fileID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := deleteScenario(tx, id); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM meta WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE id = ?`, fileID); err != nil {
		return err
	}
	return tx.Commit()
}
