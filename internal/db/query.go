package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chriserin/story/internal/model"
)

// Scenario is one indexed scenario. Meta is the scenario meta completed with
// its story meta; Outcome is the latest recorded outcome, "" when none.
type Scenario struct {
	ID          int64
	FilePath    string
	Position    int
	Title       string
	Steps       int
	ExampleRows int
	Outcome     string
	Meta        model.Meta
}

const scenarioSelect = `
	SELECT s.id, s.file_id, f.file_path, s.position, s.title, s.example_rows,
		(SELECT COUNT(*) FROM steps WHERE scenario_id = s.id),
		COALESCE(
			(SELECT outcome FROM outcomes WHERE scenario_id = s.id ORDER BY recorded_at DESC, id DESC LIMIT 1),
			''
		)
	FROM scenarios s
	JOIN files f ON s.file_id = f.id
`

// Scenarios lists every indexed scenario ordered by file path and position.
func Scenarios(db *sql.DB) ([]Scenario, error) {
	return queryScenarios(db, scenarioSelect+` ORDER BY f.file_path, s.position`)
}

func FindScenario(db *sql.DB, id int64) (Scenario, error) {
	found, err := queryScenarios(db, scenarioSelect+` WHERE s.id = ?`, id)
	if err != nil {
		return Scenario{}, err
	}
	if len(found) == 0 {
		return Scenario{}, &ScenarioNotFoundError{ID: id}
	}
	return found[0], nil
}

func queryScenarios(db *sql.DB, query string, args ...any) ([]Scenario, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scenarios: %w", err)
	}
	var results []Scenario
	var files []int64
	for rows.Next() {
		var s Scenario
		var fileID int64
		if err := rows.Scan(&s.ID, &fileID, &s.FilePath, &s.Position, &s.Title, &s.ExampleRows, &s.Steps, &s.Outcome); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, s)
		files = append(files, fileID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	storyMeta, scenarioMeta, err := loadMeta(db)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Meta = scenarioMeta[results[i].ID].InheritFrom(storyMeta[files[i]])
	}
	return results, nil
}

func loadMeta(db *sql.DB) (map[int64]model.Meta, map[int64]model.Meta, error) {
	rows, err := db.Query(`SELECT file_id, scenario_id, name, value FROM meta ORDER BY file_id, scenario_id, position`)
	if err != nil {
		return nil, nil, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()

	stories := map[int64]model.Meta{}
	scenarios := map[int64]model.Meta{}
	for rows.Next() {
		var fileID int64
		var scenarioID sql.NullInt64
		var name, value string
		if err := rows.Scan(&fileID, &scenarioID, &name, &value); err != nil {
			return nil, nil, fmt.Errorf("scanning meta: %w", err)
		}
		if scenarioID.Valid {
			scenarios[scenarioID.Int64] = scenarios[scenarioID.Int64].With(name, value)
		} else {
			stories[fileID] = stories[fileID].With(name, value)
		}
	}
	return stories, scenarios, rows.Err()
}

// RecordOutcome appends outcome to the scenario history and returns the
// outcome it replaces, "" when none.
func RecordOutcome(db *sql.DB, id int64, outcome string) (string, error) {
	var exists int64
	err := db.QueryRow(`SELECT id FROM scenarios WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &ScenarioNotFoundError{ID: id}
	}
	if err != nil {
		return "", fmt.Errorf("querying scenario %d: %w", id, err)
	}

	var previous string
	err = db.QueryRow(`SELECT outcome FROM outcomes WHERE scenario_id = ? ORDER BY recorded_at DESC, id DESC LIMIT 1`, id).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("querying outcome: %w", err)
	}

	if _, err := db.Exec(`INSERT INTO outcomes (scenario_id, outcome) VALUES (?, ?)`, id, outcome); err != nil {
		return "", fmt.Errorf("inserting outcome: %w", err)
	}
	return previous, nil
}

// Steps returns the indexed steps of a scenario in order.
func Steps(db *sql.DB, id int64) ([]string, error) {
	rows, err := db.Query(`SELECT text FROM steps WHERE scenario_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer rows.Close()

	var steps []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		steps = append(steps, text)
	}
	return steps, rows.Err()
}

type OutcomeEntry struct {
	Outcome    string
	RecordedAt time.Time
}

// History returns the recorded outcomes of a scenario, newest first.
func History(db *sql.DB, id int64) ([]OutcomeEntry, error) {
	rows, err := db.Query(`
		SELECT outcome, CAST(strftime('%s', recorded_at) AS INTEGER)
		FROM outcomes
		WHERE scenario_id = ?
		ORDER BY recorded_at DESC, id DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []OutcomeEntry
	for rows.Next() {
		var e OutcomeEntry
		var unix int64
		if err := rows.Scan(&e.Outcome, &unix); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		e.RecordedAt = time.Unix(unix, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts summarizes the index. Outcomes counts scenarios by latest outcome;
// scenarios without one count under "none".
type Counts struct {
	Stories     int
	Scenarios   int
	Steps       int
	ExampleRows int
	Outcomes    map[string]int
}

func Count(db *sql.DB) (Counts, error) {
	c := Counts{Outcomes: map[string]int{}}
	err := db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM scenarios),
			(SELECT COUNT(*) FROM steps),
			(SELECT COALESCE(SUM(example_rows), 0) FROM scenarios)
	`).Scan(&c.Stories, &c.Scenarios, &c.Steps, &c.ExampleRows)
	if err != nil {
		return Counts{}, fmt.Errorf("counting: %w", err)
	}

	rows, err := db.Query(`
		SELECT COALESCE(
			(SELECT outcome FROM outcomes WHERE scenario_id = s.id ORDER BY recorded_at DESC, id DESC LIMIT 1),
			'none'
		) AS current_outcome, COUNT(*)
		FROM scenarios s
		GROUP BY current_outcome
	`)
	if err != nil {
		return Counts{}, fmt.Errorf("querying outcome counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return Counts{}, fmt.Errorf("scanning outcome row: %w", err)
		}
		c.Outcomes[outcome] = n
	}
	return c, rows.Err()
}
