package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS drivers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			constructor TEXT NOT NULL,
			active BOOLEAN DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS participants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT,
			access_code TEXT UNIQUE NOT NULL,
			active BOOLEAN DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS rule_sets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			is_default BOOLEAN DEFAULT 0,
			total_chips INTEGER NOT NULL,
			max_chips_per_driver INTEGER NOT NULL,
			allow_same_constructor BOOLEAN DEFAULT 0,
			min_drivers INTEGER NOT NULL,
			normal_points TEXT NOT NULL,
			sprint_points TEXT NOT NULL,
			eleventh_bonus INTEGER DEFAULT 0,
			double_sprint_points BOOLEAN DEFAULT 0,
			dnf_penalty_enabled BOOLEAN DEFAULT 0,
			dnf_penalty INTEGER DEFAULT 0,
			sprint_adjust BOOLEAN DEFAULT 0,
			sprint_total_chips INTEGER DEFAULT 0,
			sprint_min_drivers INTEGER DEFAULT 0,
			champion_bonus INTEGER DEFAULT 0,
			runner_up_bonus INTEGER DEFAULT 0,
			constructor_bonus INTEGER DEFAULT 0,
			discard_worst BOOLEAN DEFAULT 0,
			auto_miss_factor REAL DEFAULT 0,
			first_race_miss_factor REAL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(name, version)
		)`,
		`CREATE TABLE IF NOT EXISTS season_rules (
			season TEXT PRIMARY KEY,
			rule_set_id INTEGER NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (rule_set_id) REFERENCES rule_sets(id)
		)`,
		`CREATE TABLE IF NOT EXISTS races (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			season TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			name TEXT NOT NULL,
			deadline DATETIME NOT NULL,
			race_type TEXT NOT NULL DEFAULT 'Normal',
			UNIQUE(season, sequence)
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			participant_id INTEGER NOT NULL,
			race_id INTEGER NOT NULL,
			picks TEXT NOT NULL,
			eleventh_driver_id INTEGER NOT NULL,
			submitted_at DATETIME NOT NULL,
			auto_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (participant_id, race_id),
			FOREIGN KEY (participant_id) REFERENCES participants(id),
			FOREIGN KEY (race_id) REFERENCES races(id)
		)`,
		`CREATE TABLE IF NOT EXISTS race_results (
			race_id INTEGER PRIMARY KEY,
			positions TEXT NOT NULL,
			dnf TEXT,
			rule_set_id INTEGER,
			recorded_at DATETIME NOT NULL,
			FOREIGN KEY (race_id) REFERENCES races(id)
		)`,
		`CREATE TABLE IF NOT EXISTS championship_predictions (
			participant_id INTEGER NOT NULL,
			season TEXT NOT NULL,
			champion_id INTEGER NOT NULL,
			runner_up_id INTEGER NOT NULL,
			constructor TEXT NOT NULL,
			submitted_at DATETIME NOT NULL,
			PRIMARY KEY (participant_id, season),
			FOREIGN KEY (participant_id) REFERENCES participants(id)
		)`,
		`CREATE TABLE IF NOT EXISTS championship_results (
			season TEXT PRIMARY KEY,
			champion_id INTEGER NOT NULL,
			runner_up_id INTEGER NOT NULL,
			constructor TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS standing_entries (
			season TEXT NOT NULL,
			participant_id INTEGER NOT NULL,
			race_id INTEGER NOT NULL,
			points REAL NOT NULL,
			rank INTEGER NOT NULL,
			eleventh_hit BOOLEAN DEFAULT 0,
			on_time BOOLEAN DEFAULT 0,
			auto_count INTEGER DEFAULT 0,
			submitted_at DATETIME,
			PRIMARY KEY (participant_id, race_id)
		)`,
		`CREATE TABLE IF NOT EXISTS season_standings (
			season TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			computed_at DATETIME NOT NULL,
			standings TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_races_season ON races(season, sequence)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_race ON predictions(race_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_rule_set ON race_results(rule_set_id)`,
		`CREATE INDEX IF NOT EXISTS idx_standing_entries_race ON standing_entries(race_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participants_code ON participants(access_code)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// constraintError maps sqlite constraint violations onto repository
// sentinels: key collisions become ErrDuplicate and dangling references
// ErrNotFound. Other errors pass through unchanged.
func constraintError(err error) error {
	var sqliteErr sqlite3.Error
	if !stderrors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		return ErrNotFound
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return ErrDuplicate
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

// ==================== Driver Methods ====================

// ListDrivers returns every driver ordered by id
func (r *Repository) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	return r.queryDrivers(ctx, `SELECT id, name, constructor, active FROM drivers ORDER BY id`)
}

// ListActiveDrivers returns the drivers currently in the pool
func (r *Repository) ListActiveDrivers(ctx context.Context) ([]models.Driver, error) {
	return r.queryDrivers(ctx, `SELECT id, name, constructor, active FROM drivers WHERE active = 1 ORDER BY id`)
}

func (r *Repository) queryDrivers(ctx context.Context, query string) ([]models.Driver, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []models.Driver
	for rows.Next() {
		var d models.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Constructor, &d.Active); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// GetDriver retrieves a driver by id
func (r *Repository) GetDriver(ctx context.Context, id int) (*models.Driver, error) {
	var d models.Driver
	err := r.db.QueryRowContext(ctx, `SELECT id, name, constructor, active FROM drivers WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Constructor, &d.Active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDriver adds an active driver
func (r *Repository) CreateDriver(ctx context.Context, name, constructor string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `INSERT INTO drivers (name, constructor, active) VALUES (?, ?, 1)`, name, constructor)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateDriver updates name, constructor and active flag
func (r *Repository) UpdateDriver(ctx context.Context, d models.Driver) error {
	result, err := r.db.ExecContext(ctx, `UPDATE drivers SET name = ?, constructor = ?, active = ? WHERE id = ?`,
		d.Name, d.Constructor, d.Active, d.ID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// ==================== Participant Methods ====================

const participantColumns = `id, name, COALESCE(email, ''), access_code, active`

// ListParticipants returns all participants ordered by id
func (r *Repository) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	return r.queryParticipants(ctx, `SELECT `+participantColumns+` FROM participants ORDER BY id`)
}

// ListActiveParticipants returns the participants taking part in the pool
func (r *Repository) ListActiveParticipants(ctx context.Context) ([]models.Participant, error) {
	return r.queryParticipants(ctx, `SELECT `+participantColumns+` FROM participants WHERE active = 1 ORDER BY id`)
}

func (r *Repository) queryParticipants(ctx context.Context, query string, args ...any) ([]models.Participant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

func scanParticipant(s scanner) (*models.Participant, error) {
	var p models.Participant
	if err := s.Scan(&p.ID, &p.Name, &p.Email, &p.AccessCode, &p.Active); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetParticipant retrieves a participant by id
func (r *Repository) GetParticipant(ctx context.Context, id int) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM participants WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// GetParticipantByAccessCode retrieves a participant by the code embedded in their QR link
func (r *Repository) GetParticipantByAccessCode(ctx context.Context, code string) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM participants WHERE access_code = ?`, code))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// CreateParticipant adds an active participant
func (r *Repository) CreateParticipant(ctx context.Context, name, email, accessCode string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO participants (name, email, access_code, active) VALUES (?, ?, ?, 1)
	`, name, email, accessCode)
	if err != nil {
		return 0, constraintError(err)
	}
	return result.LastInsertId()
}

// UpdateParticipant updates name, email and active flag
func (r *Repository) UpdateParticipant(ctx context.Context, p models.Participant) error {
	result, err := r.db.ExecContext(ctx, `UPDATE participants SET name = ?, email = ?, active = ? WHERE id = ?`,
		p.Name, p.Email, p.Active, p.ID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// ==================== Rule Set Methods ====================

const ruleSetColumns = `rs.id, rs.name, rs.version, rs.is_default, rs.total_chips, rs.max_chips_per_driver,
	rs.allow_same_constructor, rs.min_drivers, rs.normal_points, rs.sprint_points, rs.eleventh_bonus,
	rs.double_sprint_points, rs.dnf_penalty_enabled, rs.dnf_penalty, rs.sprint_adjust,
	rs.sprint_total_chips, rs.sprint_min_drivers, rs.champion_bonus, rs.runner_up_bonus,
	rs.constructor_bonus, rs.discard_worst, rs.auto_miss_factor, rs.first_race_miss_factor`

func scanRuleSet(s scanner) (*models.RuleSet, error) {
	var rs models.RuleSet
	var normalJSON, sprintJSON string
	if err := s.Scan(&rs.ID, &rs.Name, &rs.Version, &rs.IsDefault, &rs.TotalChips, &rs.MaxChipsPerDriver,
		&rs.AllowSameConstructor, &rs.MinDrivers, &normalJSON, &sprintJSON, &rs.EleventhBonus,
		&rs.DoubleSprintPoints, &rs.DNFPenaltyEnabled, &rs.DNFPenalty, &rs.SprintAdjust,
		&rs.SprintTotalChips, &rs.SprintMinDrivers, &rs.ChampionBonus, &rs.RunnerUpBonus,
		&rs.ConstructorBonus, &rs.DiscardWorst, &rs.AutoMissFactor, &rs.FirstRaceMissFactor); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(normalJSON), &rs.NormalPoints); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sprintJSON), &rs.SprintPoints); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (r *Repository) queryRuleSet(ctx context.Context, query string, args ...any) (*models.RuleSet, error) {
	rs, err := scanRuleSet(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rs, err
}

// ListRuleSets returns every rule set version, newest version first per name
func (r *Repository) ListRuleSets(ctx context.Context) ([]models.RuleSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ruleSetColumns+` FROM rule_sets rs ORDER BY rs.name, rs.version DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []models.RuleSet
	for rows.Next() {
		rs, err := scanRuleSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *rs)
	}
	return sets, rows.Err()
}

// GetRuleSet retrieves a rule set version by id
func (r *Repository) GetRuleSet(ctx context.Context, id int) (*models.RuleSet, error) {
	return r.queryRuleSet(ctx, `SELECT `+ruleSetColumns+` FROM rule_sets rs WHERE rs.id = ?`, id)
}

// GetDefaultRuleSet retrieves the designated default rule set
func (r *Repository) GetDefaultRuleSet(ctx context.Context) (*models.RuleSet, error) {
	return r.queryRuleSet(ctx, `SELECT `+ruleSetColumns+` FROM rule_sets rs WHERE rs.is_default = 1 ORDER BY rs.id DESC LIMIT 1`)
}

// GetSeasonRuleSet retrieves the rule set bound to season
func (r *Repository) GetSeasonRuleSet(ctx context.Context, season string) (*models.RuleSet, error) {
	return r.queryRuleSet(ctx, `
		SELECT `+ruleSetColumns+`
		FROM season_rules sr
		JOIN rule_sets rs ON rs.id = sr.rule_set_id
		WHERE sr.season = ?
	`, season)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRuleSet(ctx context.Context, db execer, rs models.RuleSet) (int64, error) {
	normalJSON, err := json.Marshal(rs.NormalPoints)
	if err != nil {
		return 0, err
	}
	sprintJSON, err := json.Marshal(rs.SprintPoints)
	if err != nil {
		return 0, err
	}
	if rs.Version < 1 {
		rs.Version = 1
	}
	result, err := db.ExecContext(ctx, `
		INSERT INTO rule_sets (name, version, is_default, total_chips, max_chips_per_driver,
			allow_same_constructor, min_drivers, normal_points, sprint_points, eleventh_bonus,
			double_sprint_points, dnf_penalty_enabled, dnf_penalty, sprint_adjust,
			sprint_total_chips, sprint_min_drivers, champion_bonus, runner_up_bonus,
			constructor_bonus, discard_worst, auto_miss_factor, first_race_miss_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rs.Name, rs.Version, rs.IsDefault, rs.TotalChips, rs.MaxChipsPerDriver,
		rs.AllowSameConstructor, rs.MinDrivers, string(normalJSON), string(sprintJSON), rs.EleventhBonus,
		rs.DoubleSprintPoints, rs.DNFPenaltyEnabled, rs.DNFPenalty, rs.SprintAdjust,
		rs.SprintTotalChips, rs.SprintMinDrivers, rs.ChampionBonus, rs.RunnerUpBonus,
		rs.ConstructorBonus, rs.DiscardWorst, rs.AutoMissFactor, rs.FirstRaceMissFactor)
	if err != nil {
		return 0, constraintError(err)
	}
	return result.LastInsertId()
}

// CreateRuleSet stores a new rule set. The default flag is not applied here;
// use SetDefaultRuleSet so that only one rule set carries it.
func (r *Repository) CreateRuleSet(ctx context.Context, rs models.RuleSet) (int64, error) {
	rs.IsDefault = false
	return insertRuleSet(ctx, r.db, rs)
}

// UpdateRuleSet overwrites a rule set in place. Callers must only do this for
// rule sets no recorded result is pinned to.
func (r *Repository) UpdateRuleSet(ctx context.Context, rs models.RuleSet) error {
	normalJSON, err := json.Marshal(rs.NormalPoints)
	if err != nil {
		return err
	}
	sprintJSON, err := json.Marshal(rs.SprintPoints)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE rule_sets SET name = ?, total_chips = ?, max_chips_per_driver = ?,
			allow_same_constructor = ?, min_drivers = ?, normal_points = ?, sprint_points = ?,
			eleventh_bonus = ?, double_sprint_points = ?, dnf_penalty_enabled = ?, dnf_penalty = ?,
			sprint_adjust = ?, sprint_total_chips = ?, sprint_min_drivers = ?, champion_bonus = ?,
			runner_up_bonus = ?, constructor_bonus = ?, discard_worst = ?, auto_miss_factor = ?,
			first_race_miss_factor = ?
		WHERE id = ?
	`, rs.Name, rs.TotalChips, rs.MaxChipsPerDriver,
		rs.AllowSameConstructor, rs.MinDrivers, string(normalJSON), string(sprintJSON),
		rs.EleventhBonus, rs.DoubleSprintPoints, rs.DNFPenaltyEnabled, rs.DNFPenalty,
		rs.SprintAdjust, rs.SprintTotalChips, rs.SprintMinDrivers, rs.ChampionBonus,
		rs.RunnerUpBonus, rs.ConstructorBonus, rs.DiscardWorst, rs.AutoMissFactor,
		rs.FirstRaceMissFactor, rs.ID)
	if err != nil {
		return constraintError(err)
	}
	return expectAffected(result)
}

// ReviseRuleSet stores rs as the next version of rule set oldID and moves the
// season bindings and default flag of oldID onto it, in one transaction.
// oldID itself is left untouched so results pinned to it keep scoring the same.
func (r *Repository) ReviseRuleSet(ctx context.Context, oldID int, rs models.RuleSet) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var version int
	var isDefault bool
	err = tx.QueryRowContext(ctx, `SELECT version, is_default FROM rule_sets WHERE id = ?`, oldID).Scan(&version, &isDefault)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM rule_sets WHERE name = ?`, rs.Name).Scan(&version); err != nil {
		return 0, err
	}

	rs.Version = version + 1
	rs.IsDefault = isDefault
	newID, err := insertRuleSet(ctx, tx, rs)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE season_rules SET rule_set_id = ?, updated_at = ? WHERE rule_set_id = ?`,
		newID, time.Now().UTC(), oldID); err != nil {
		return 0, err
	}
	if isDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE rule_sets SET is_default = 0 WHERE id = ?`, oldID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newID, nil
}

// RuleSetInUse reports whether any recorded result is pinned to rule set id
func (r *Repository) RuleSetInUse(ctx context.Context, id int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM race_results WHERE rule_set_id = ?`, id).Scan(&count)
	return count > 0, err
}

// SetDefaultRuleSet makes id the only default rule set
func (r *Repository) SetDefaultRuleSet(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE rule_sets SET is_default = 0 WHERE is_default = 1`); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `UPDATE rule_sets SET is_default = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}
	return tx.Commit()
}

// BindSeason maps season to a rule set. The most recent binding wins.
func (r *Repository) BindSeason(ctx context.Context, season string, ruleSetID int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO season_rules (season, rule_set_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(season) DO UPDATE SET rule_set_id = excluded.rule_set_id, updated_at = excluded.updated_at
	`, season, ruleSetID, time.Now().UTC())
	return constraintError(err)
}

// ListSeasonBindings returns all season bindings ordered by season
func (r *Repository) ListSeasonBindings(ctx context.Context) ([]models.SeasonRuleBinding, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT season, rule_set_id, updated_at FROM season_rules ORDER BY season`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []models.SeasonRuleBinding
	for rows.Next() {
		var b models.SeasonRuleBinding
		if err := rows.Scan(&b.Season, &b.RuleSetID, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

// ==================== Race Methods ====================

const raceColumns = `id, season, sequence, name, deadline, race_type`

func scanRace(s scanner) (*models.Race, error) {
	var race models.Race
	var raceType string
	if err := s.Scan(&race.ID, &race.Season, &race.Sequence, &race.Name, &race.Deadline, &raceType); err != nil {
		return nil, err
	}
	race.Type = models.RaceType(raceType)
	return &race, nil
}

// ListRaces returns the races of a season in calendar order
func (r *Repository) ListRaces(ctx context.Context, season string) ([]models.Race, error) {
	return r.queryRaces(ctx, `SELECT `+raceColumns+` FROM races WHERE season = ? ORDER BY sequence`, season)
}

// ListRacesClosingBetween returns races whose deadline falls in [from, to), earliest first.
// A deadline equal to to is still open and belongs to the next window.
func (r *Repository) ListRacesClosingBetween(ctx context.Context, from, to time.Time) ([]models.Race, error) {
	return r.queryRaces(ctx, `SELECT `+raceColumns+` FROM races WHERE deadline >= ? AND deadline < ? ORDER BY deadline, id`,
		from.UTC(), to.UTC())
}

func (r *Repository) queryRaces(ctx context.Context, query string, args ...any) ([]models.Race, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var races []models.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, err
		}
		races = append(races, *race)
	}
	return races, rows.Err()
}

// GetRace retrieves a race by id
func (r *Repository) GetRace(ctx context.Context, id int) (*models.Race, error) {
	race, err := scanRace(r.db.QueryRowContext(ctx, `SELECT `+raceColumns+` FROM races WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return race, err
}

// GetRaceBySequence retrieves the race at a calendar position of a season
func (r *Repository) GetRaceBySequence(ctx context.Context, season string, sequence int) (*models.Race, error) {
	race, err := scanRace(r.db.QueryRowContext(ctx, `SELECT `+raceColumns+` FROM races WHERE season = ? AND sequence = ?`, season, sequence))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return race, err
}

// CreateRace adds a race to a season calendar
func (r *Repository) CreateRace(ctx context.Context, race models.Race) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO races (season, sequence, name, deadline, race_type) VALUES (?, ?, ?, ?, ?)
	`, race.Season, race.Sequence, race.Name, race.Deadline.UTC(), string(race.Type))
	if err != nil {
		return 0, constraintError(err)
	}
	return result.LastInsertId()
}

// UpdateRace updates a race's calendar data
func (r *Repository) UpdateRace(ctx context.Context, race models.Race) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE races SET season = ?, sequence = ?, name = ?, deadline = ?, race_type = ? WHERE id = ?
	`, race.Season, race.Sequence, race.Name, race.Deadline.UTC(), string(race.Type), race.ID)
	if err != nil {
		return constraintError(err)
	}
	return expectAffected(result)
}

// ==================== Prediction Methods ====================

const predictionColumns = `p.participant_id, p.race_id, p.picks, p.eleventh_driver_id, p.submitted_at, p.auto_count`

func scanPrediction(s scanner) (*models.Prediction, error) {
	var p models.Prediction
	var picksJSON string
	if err := s.Scan(&p.ParticipantID, &p.RaceID, &picksJSON, &p.EleventhDriverID, &p.SubmittedAt, &p.AutoCount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(picksJSON), &p.Picks); err != nil {
		return nil, &DecodeError{RaceID: p.RaceID, ParticipantID: p.ParticipantID, Err: err}
	}
	return &p, nil
}

// queryPredictions collects rows whose picks cannot be decoded separately
// so one corrupt row does not hide the rest.
func (r *Repository) queryPredictions(ctx context.Context, query string, args ...any) ([]models.Prediction, []DecodeError, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var predictions []models.Prediction
	var undecodable []DecodeError
	for rows.Next() {
		p, err := scanPrediction(rows)
		var decodeErr *DecodeError
		if stderrors.As(err, &decodeErr) {
			undecodable = append(undecodable, *decodeErr)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		predictions = append(predictions, *p)
	}
	return predictions, undecodable, rows.Err()
}

// GetPrediction retrieves the current prediction of a participant for a race
func (r *Repository) GetPrediction(ctx context.Context, participantID, raceID int) (*models.Prediction, error) {
	p, err := scanPrediction(r.db.QueryRowContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions p WHERE p.participant_id = ? AND p.race_id = ?`,
		participantID, raceID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// SavePrediction stores p as the current prediction for its participant and
// race. A stored prediction with a later submission time is kept.
func (r *Repository) SavePrediction(ctx context.Context, p models.Prediction) error {
	picksJSON, err := json.Marshal(p.Picks)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO predictions (participant_id, race_id, picks, eleventh_driver_id, submitted_at, auto_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(participant_id, race_id) DO UPDATE SET
			picks = excluded.picks,
			eleventh_driver_id = excluded.eleventh_driver_id,
			submitted_at = excluded.submitted_at,
			auto_count = excluded.auto_count
		WHERE excluded.submitted_at >= predictions.submitted_at
	`, p.ParticipantID, p.RaceID, string(picksJSON), p.EleventhDriverID, p.SubmittedAt.UTC(), p.AutoCount)
	return constraintError(err)
}

// ListRacePredictions returns the current predictions for a race
func (r *Repository) ListRacePredictions(ctx context.Context, raceID int) ([]models.Prediction, error) {
	predictions, undecodable, err := r.queryPredictions(ctx, `SELECT `+predictionColumns+` FROM predictions p WHERE p.race_id = ? ORDER BY p.participant_id`, raceID)
	if err != nil {
		return nil, err
	}
	if len(undecodable) > 0 {
		return nil, &undecodable[0]
	}
	return predictions, nil
}

// ListSeasonPredictions returns every current prediction of a season.
// Rows whose picks cannot be decoded are returned apart instead of failing the query.
func (r *Repository) ListSeasonPredictions(ctx context.Context, season string) ([]models.Prediction, []DecodeError, error) {
	return r.queryPredictions(ctx, `
		SELECT `+predictionColumns+`
		FROM predictions p
		JOIN races ra ON ra.id = p.race_id
		WHERE ra.season = ?
		ORDER BY ra.sequence, p.participant_id
	`, season)
}

// ==================== Result Methods ====================

func scanResult(s scanner) (*models.RaceResult, error) {
	var res models.RaceResult
	var positionsJSON string
	var dnfJSON sql.NullString
	var ruleSetID sql.NullInt64
	if err := s.Scan(&res.RaceID, &positionsJSON, &dnfJSON, &ruleSetID, &res.RecordedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(positionsJSON), &res.Positions); err != nil {
		return nil, &DecodeError{RaceID: res.RaceID, Err: err}
	}
	if dnfJSON.Valid && dnfJSON.String != "" {
		if err := json.Unmarshal([]byte(dnfJSON.String), &res.DNF); err != nil {
			return nil, &DecodeError{RaceID: res.RaceID, Err: err}
		}
	}
	if ruleSetID.Valid {
		res.RuleSetID = int(ruleSetID.Int64)
	}
	return &res, nil
}

func encodeResult(res models.RaceResult) (positions string, dnf sql.NullString, ruleSetID sql.NullInt64, err error) {
	positionsJSON, err := json.Marshal(res.Positions)
	if err != nil {
		return "", dnf, ruleSetID, err
	}
	if len(res.DNF) > 0 {
		dnfJSON, err := json.Marshal(res.DNF)
		if err != nil {
			return "", dnf, ruleSetID, err
		}
		dnf = sql.NullString{String: string(dnfJSON), Valid: true}
	}
	if res.RuleSetID > 0 {
		ruleSetID = sql.NullInt64{Int64: int64(res.RuleSetID), Valid: true}
	}
	return string(positionsJSON), dnf, ruleSetID, nil
}

// GetResult retrieves the official result of a race
func (r *Repository) GetResult(ctx context.Context, raceID int) (*models.RaceResult, error) {
	res, err := scanResult(r.db.QueryRowContext(ctx,
		`SELECT race_id, positions, dnf, rule_set_id, recorded_at FROM race_results WHERE race_id = ?`, raceID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return res, err
}

// CreateResult stores the first result of a race. A second one yields ErrDuplicate.
func (r *Repository) CreateResult(ctx context.Context, res models.RaceResult) error {
	positions, dnf, ruleSetID, err := encodeResult(res)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO race_results (race_id, positions, dnf, rule_set_id, recorded_at) VALUES (?, ?, ?, ?, ?)
	`, res.RaceID, positions, dnf, ruleSetID, res.RecordedAt.UTC())
	return constraintError(err)
}

// ReplaceResult overwrites the stored result of a race
func (r *Repository) ReplaceResult(ctx context.Context, res models.RaceResult) error {
	positions, dnf, ruleSetID, err := encodeResult(res)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE race_results SET positions = ?, dnf = ?, rule_set_id = ?, recorded_at = ? WHERE race_id = ?
	`, positions, dnf, ruleSetID, res.RecordedAt.UTC(), res.RaceID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// ListSeasonResults returns the recorded results of a season in calendar order.
// Results that cannot be decoded are returned apart instead of failing the query.
func (r *Repository) ListSeasonResults(ctx context.Context, season string) ([]models.RaceResult, []DecodeError, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rr.race_id, rr.positions, rr.dnf, rr.rule_set_id, rr.recorded_at
		FROM race_results rr
		JOIN races ra ON ra.id = rr.race_id
		WHERE ra.season = ?
		ORDER BY ra.sequence
	`, season)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var results []models.RaceResult
	var undecodable []DecodeError
	for rows.Next() {
		res, err := scanResult(rows)
		var decodeErr *DecodeError
		if stderrors.As(err, &decodeErr) {
			undecodable = append(undecodable, *decodeErr)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		results = append(results, *res)
	}
	return results, undecodable, rows.Err()
}

// ==================== Championship Methods ====================

// SaveChampionshipPrediction creates or replaces a participant's season guess
func (r *Repository) SaveChampionshipPrediction(ctx context.Context, cp models.ChampionshipPrediction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO championship_predictions (participant_id, season, champion_id, runner_up_id, constructor, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(participant_id, season) DO UPDATE SET
			champion_id = excluded.champion_id,
			runner_up_id = excluded.runner_up_id,
			constructor = excluded.constructor,
			submitted_at = excluded.submitted_at
	`, cp.ParticipantID, cp.Season, cp.ChampionID, cp.RunnerUpID, cp.Constructor, cp.SubmittedAt.UTC())
	return constraintError(err)
}

// GetChampionshipPrediction retrieves a participant's season guess
func (r *Repository) GetChampionshipPrediction(ctx context.Context, participantID int, season string) (*models.ChampionshipPrediction, error) {
	var cp models.ChampionshipPrediction
	err := r.db.QueryRowContext(ctx, `
		SELECT participant_id, season, champion_id, runner_up_id, constructor, submitted_at
		FROM championship_predictions WHERE participant_id = ? AND season = ?
	`, participantID, season).Scan(&cp.ParticipantID, &cp.Season, &cp.ChampionID, &cp.RunnerUpID, &cp.Constructor, &cp.SubmittedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// ListChampionshipPredictions returns all season guesses for a season
func (r *Repository) ListChampionshipPredictions(ctx context.Context, season string) ([]models.ChampionshipPrediction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_id, season, champion_id, runner_up_id, constructor, submitted_at
		FROM championship_predictions WHERE season = ? ORDER BY participant_id
	`, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ChampionshipPrediction
	for rows.Next() {
		var cp models.ChampionshipPrediction
		if err := rows.Scan(&cp.ParticipantID, &cp.Season, &cp.ChampionID, &cp.RunnerUpID, &cp.Constructor, &cp.SubmittedAt); err != nil {
			return nil, err
		}
		list = append(list, cp)
	}
	return list, rows.Err()
}

// SaveChampionshipResult records the season outcome, replacing any previous one
func (r *Repository) SaveChampionshipResult(ctx context.Context, cr models.ChampionshipResult) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO championship_results (season, champion_id, runner_up_id, constructor) VALUES (?, ?, ?, ?)
		ON CONFLICT(season) DO UPDATE SET
			champion_id = excluded.champion_id,
			runner_up_id = excluded.runner_up_id,
			constructor = excluded.constructor
	`, cr.Season, cr.ChampionID, cr.RunnerUpID, cr.Constructor)
	return err
}

// GetChampionshipResult retrieves the season outcome
func (r *Repository) GetChampionshipResult(ctx context.Context, season string) (*models.ChampionshipResult, error) {
	var cr models.ChampionshipResult
	err := r.db.QueryRowContext(ctx, `
		SELECT season, champion_id, runner_up_id, constructor FROM championship_results WHERE season = ?
	`, season).Scan(&cr.Season, &cr.ChampionID, &cr.RunnerUpID, &cr.Constructor)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

// ==================== Standings Methods ====================

// ReplaceStandings swaps the season's derived entries and snapshot for new
// ones in a single transaction.
func (r *Repository) ReplaceStandings(ctx context.Context, snap StandingsSnapshot, entries []models.StandingEntry) error {
	standingsJSON, err := json.Marshal(snap.Standings)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM standing_entries WHERE season = ?`, snap.Season); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO standing_entries (season, participant_id, race_id, points, rank, eleventh_hit, on_time, auto_count, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, snap.Season, e.ParticipantID, e.RaceID, e.Points, e.Rank,
			e.EleventhHit, e.OnTime, e.AutoCount, e.SubmittedAt.UTC()); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO season_standings (season, run_id, computed_at, standings) VALUES (?, ?, ?, ?)
		ON CONFLICT(season) DO UPDATE SET
			run_id = excluded.run_id,
			computed_at = excluded.computed_at,
			standings = excluded.standings
	`, snap.Season, snap.RunID, snap.ComputedAt.UTC(), string(standingsJSON)); err != nil {
		return err
	}

	return tx.Commit()
}

// GetStandings retrieves the latest stored snapshot of a season
func (r *Repository) GetStandings(ctx context.Context, season string) (*StandingsSnapshot, error) {
	var snap StandingsSnapshot
	var standingsJSON string
	err := r.db.QueryRowContext(ctx, `
		SELECT season, run_id, computed_at, standings FROM season_standings WHERE season = ?
	`, season).Scan(&snap.Season, &snap.RunID, &snap.ComputedAt, &standingsJSON)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(standingsJSON), &snap.Standings); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListRaceStandings returns the stored entries of a race ordered by rank
func (r *Repository) ListRaceStandings(ctx context.Context, raceID int) ([]models.StandingEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_id, race_id, points, rank, eleventh_hit, on_time, auto_count, submitted_at
		FROM standing_entries WHERE race_id = ? ORDER BY rank, participant_id
	`, raceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.StandingEntry
	for rows.Next() {
		var e models.StandingEntry
		if err := rows.Scan(&e.ParticipantID, &e.RaceID, &e.Points, &e.Rank, &e.EleventhHit,
			&e.OnTime, &e.AutoCount, &e.SubmittedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value by key
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting stores a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// ==================== Database Management Methods ====================

// validTables lists the derived tables that may be cleared and rebuilt
var validTables = map[string]bool{
	"standing_entries": true, "season_standings": true,
}

// ClearTable clears all data from a table
// Only allows clearing whitelisted tables to prevent SQL injection
func (r *Repository) ClearTable(ctx context.Context, table string) error {
	if !validTables[table] {
		return ErrInvalidTable
	}

	// Safe to use string concatenation now that we've validated the table name
	_, err := r.db.ExecContext(ctx, "DELETE FROM "+table)
	return err
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
