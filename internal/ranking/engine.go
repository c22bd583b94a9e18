// Package ranking turns per-race scores into ordered season standings.
package ranking

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
	"github.com/sansquer77/BF1Homol-sub000/internal/scoring"
)

// DefaultWorkers is the per-participant scoring concurrency when none is set
const DefaultWorkers = 4

// RaceInput is one race of the season with its result, if any, and the
// configuration its predictions are scored under.
type RaceInput struct {
	Race   models.Race
	Result *models.RaceResult
	Config rules.Config
	// ResultErr is set when a stored result exists but could not be read.
	// The race is then skipped like a malformed result.
	ResultErr error
}

// Input is everything needed to rank one season
type Input struct {
	Season             string
	Participants       []models.Participant
	Races              []RaceInput
	Predictions        []models.Prediction
	Championship       []models.ChampionshipPrediction
	ChampionshipResult *models.ChampionshipResult
	// Rules carries the season-level settings: discard and championship bonuses.
	Rules rules.Config
}

// Skipped records a race left out of the totals
type Skipped struct {
	RaceID int    `json:"race_id"`
	Reason string `json:"reason"`
}

// Result is the outcome of one ranking run
type Result struct {
	RunID       string                  `json:"run_id"`
	Season      string                  `json:"season"`
	Standings   []models.SeasonStanding `json:"standings"`
	Entries     []models.StandingEntry  `json:"entries"`
	ScoredRaces []int                   `json:"scored_races"`
	Skipped     []Skipped               `json:"skipped,omitempty"`
}

// Engine ranks seasons. Per-participant scoring runs on a bounded worker pool.
type Engine struct {
	log     logger.Logger
	workers int
}

// NewEngine creates an Engine. workers <= 0 uses DefaultWorkers.
func NewEngine(log logger.Logger, workers int) *Engine {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Engine{log: log, workers: workers}
}

type predictionKey struct {
	participantID int
	raceID        int
}

// Rank scores every prediction of the season and orders the participants.
// The same input always produces the same standings and entries.
func (e *Engine) Rank(ctx context.Context, in Input) (*Result, error) {
	races := slices.Clone(in.Races)
	slices.SortStableFunc(races, func(a, b RaceInput) int {
		return cmp.Compare(a.Race.Sequence, b.Race.Sequence)
	})

	res := &Result{RunID: uuid.NewString(), Season: in.Season}

	var scored []RaceInput
	for _, r := range races {
		if r.ResultErr != nil {
			e.log.Warn("Skipping unreadable result", "season", in.Season, "race_id", r.Race.ID, "error", r.ResultErr)
			res.Skipped = append(res.Skipped, Skipped{RaceID: r.Race.ID, Reason: r.ResultErr.Error()})
			continue
		}
		if r.Result == nil {
			continue
		}
		if err := scoring.ValidateResult(*r.Result); err != nil {
			e.log.Warn("Skipping malformed result", "season", in.Season, "race_id", r.Race.ID, "error", err)
			res.Skipped = append(res.Skipped, Skipped{RaceID: r.Race.ID, Reason: err.Error()})
			continue
		}
		scored = append(scored, r)
		res.ScoredRaces = append(res.ScoredRaces, r.Race.ID)
	}

	firstRaceID := 0
	if len(races) > 0 {
		firstRaceID = races[0].Race.ID
	}

	entries, err := e.scoreAll(ctx, in, scored, firstRaceID)
	if err != nil {
		return nil, err
	}
	res.Entries = entries

	res.Standings = e.standings(in, entries)

	if len(scored) >= 2 {
		prior := scored[:len(scored)-1]
		priorEntries := entriesForRaces(entries, prior)
		// Points of a missed first race depend only on that race's entries,
		// so the prior entries need no rescoring.
		previous := e.standings(in, priorEntries)
		applyMovement(res.Standings, previous)
	}

	e.log.Info("Ranked season",
		"season", in.Season,
		"run_id", res.RunID,
		"participants", len(res.Standings),
		"races_scored", len(scored),
		"races_skipped", len(res.Skipped))
	return res, nil
}

// scoreAll computes one StandingEntry per (participant, scored race) that
// has a prediction, then fixes up first-race misses and per-race ranks.
func (e *Engine) scoreAll(ctx context.Context, in Input, scored []RaceInput, firstRaceID int) ([]models.StandingEntry, error) {
	byKey := make(map[predictionKey]models.Prediction, len(in.Predictions))
	for _, p := range in.Predictions {
		byKey[predictionKey{p.ParticipantID, p.RaceID}] = p
	}

	perParticipant := make([][]models.StandingEntry, len(in.Participants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, participant := range in.Participants {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var out []models.StandingEntry
			for _, r := range scored {
				p, ok := byKey[predictionKey{participant.ID, r.Race.ID}]
				if !ok {
					continue
				}
				b := scoring.Score(p, *r.Result, r.Config)
				out = append(out, models.StandingEntry{
					ParticipantID: participant.ID,
					RaceID:        r.Race.ID,
					Points:        b.Total,
					EleventhHit:   b.EleventhHit,
					OnTime:        !p.IsAuto() && !p.SubmittedAt.After(r.Race.Deadline),
					AutoCount:     p.AutoCount,
					SubmittedAt:   p.SubmittedAt,
				})
			}
			perParticipant[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var entries []models.StandingEntry
	for _, out := range perParticipant {
		entries = append(entries, out...)
	}

	for _, r := range scored {
		idx := indexesForRace(entries, r.Race.ID)
		if r.Race.ID == firstRaceID {
			applyFirstRaceMiss(entries, idx, r.Config.FirstRaceMissFactor)
		}
		assignRanks(entries, idx)
	}
	return entries, nil
}

// applyFirstRaceMiss scores generated predictions on the season's first race
// at factor times the lowest manual score of that race, or zero when nobody
// submitted manually.
func applyFirstRaceMiss(entries []models.StandingEntry, idx []int, factor float64) {
	lowest, found := 0.0, false
	for _, i := range idx {
		if entries[i].AutoCount > 0 {
			continue
		}
		if !found || entries[i].Points < lowest {
			lowest, found = entries[i].Points, true
		}
	}
	for _, i := range idx {
		if entries[i].AutoCount == 0 {
			continue
		}
		if found {
			entries[i].Points = scoring.Reduce(lowest, factor)
		} else {
			entries[i].Points = 0
		}
	}
}

// assignRanks gives competition ranks (1, 2, 2, 4) by points within one race
func assignRanks(entries []models.StandingEntry, idx []int) {
	ordered := slices.Clone(idx)
	slices.SortStableFunc(ordered, func(a, b int) int {
		return cmp.Compare(entries[b].Points, entries[a].Points)
	})
	for n, i := range ordered {
		if n > 0 && entries[i].Points == entries[ordered[n-1]].Points {
			entries[i].Rank = entries[ordered[n-1]].Rank
			continue
		}
		entries[i].Rank = n + 1
	}
}

func indexesForRace(entries []models.StandingEntry, raceID int) []int {
	var idx []int
	for i, e := range entries {
		if e.RaceID == raceID {
			idx = append(idx, i)
		}
	}
	return idx
}

func entriesForRaces(entries []models.StandingEntry, races []RaceInput) []models.StandingEntry {
	keep := make(map[int]bool, len(races))
	for _, r := range races {
		keep[r.Race.ID] = true
	}
	var out []models.StandingEntry
	for _, e := range entries {
		if keep[e.RaceID] {
			out = append(out, e)
		}
	}
	return out
}

// standings aggregates entries into ordered season rows
func (e *Engine) standings(in Input, entries []models.StandingEntry) []models.SeasonStanding {
	byParticipant := make(map[int][]models.StandingEntry, len(in.Participants))
	for _, en := range entries {
		byParticipant[en.ParticipantID] = append(byParticipant[en.ParticipantID], en)
	}

	champ := make(map[int]models.ChampionshipPrediction, len(in.Championship))
	for _, c := range in.Championship {
		champ[c.ParticipantID] = c
	}

	rows := make([]models.SeasonStanding, 0, len(in.Participants))
	for _, p := range in.Participants {
		rows = append(rows, seasonRow(p, byParticipant[p.ID], in, champ))
	}

	SortStandings(rows)
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

func seasonRow(p models.Participant, entries []models.StandingEntry, in Input, champ map[int]models.ChampionshipPrediction) models.SeasonStanding {
	row := models.SeasonStanding{
		ParticipantID: p.ID,
		Name:          p.Name,
		RacesScored:   len(entries),
	}
	for _, en := range entries {
		if en.EleventhHit {
			row.EleventhHits++
		}
		if en.OnTime {
			row.OnTimeCount++
		}
	}

	racePoints, dropped := SeasonPoints(entries, in.Rules.DiscardWorst)
	row.RacePoints = racePoints
	if dropped != nil {
		row.DiscardedRaceID = dropped.RaceID
		row.DiscardedPoints = dropped.Points
	}

	if cr := in.ChampionshipResult; cr != nil {
		if cp, ok := champ[p.ID]; ok {
			bonus := 0
			if cp.ChampionID != 0 && cp.ChampionID == cr.ChampionID {
				row.ChampionHit = true
				bonus += in.Rules.ChampionBonus
			}
			if cp.RunnerUpID != 0 && cp.RunnerUpID == cr.RunnerUpID {
				row.RunnerUpHit = true
				bonus += in.Rules.RunnerUpBonus
			}
			if cp.Constructor != "" && cp.Constructor == cr.Constructor {
				row.ConstructorHit = true
				bonus += in.Rules.ConstructorBonus
			}
			row.ChampionshipPoints = float64(bonus)
		}
	}

	row.Total = scoring.Sum(row.RacePoints, row.ChampionshipPoints)
	return row
}

// SortStandings orders rows by total, 11th-place hits, champion hit,
// constructor hit, runner-up hit and on-time submissions, all descending.
// Rows equal on every key keep their relative order.
func SortStandings(rows []models.SeasonStanding) {
	slices.SortStableFunc(rows, compareStandings)
}

func compareStandings(a, b models.SeasonStanding) int {
	if c := cmp.Compare(b.Total, a.Total); c != 0 {
		return c
	}
	if c := cmp.Compare(b.EleventhHits, a.EleventhHits); c != 0 {
		return c
	}
	if c := compareBool(b.ChampionHit, a.ChampionHit); c != 0 {
		return c
	}
	if c := compareBool(b.ConstructorHit, a.ConstructorHit); c != 0 {
		return c
	}
	if c := compareBool(b.RunnerUpHit, a.RunnerUpHit); c != 0 {
		return c
	}
	return cmp.Compare(b.OnTimeCount, a.OnTimeCount)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func applyMovement(current, previous []models.SeasonStanding) {
	before := make(map[int]int, len(previous))
	for _, s := range previous {
		before[s.ParticipantID] = s.Position
	}
	for i := range current {
		if pos, ok := before[current[i].ParticipantID]; ok {
			current[i].PreviousPosition = pos
			current[i].Movement = pos - current[i].Position
		}
	}
}
