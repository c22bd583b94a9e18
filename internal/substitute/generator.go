// Package substitute builds predictions for participants who missed a race
// deadline, either by carrying their previous prediction forward under the
// current rules or by drawing a random rule-compliant one.
package substitute

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
	"github.com/sansquer77/BF1Homol-sub000/internal/scoring"
)

// DefaultAttempts bounds the randomized generation retries
const DefaultAttempts = 1000

// Method tells how a substitute was produced
type Method string

const (
	MethodAdapted Method = "adapted"
	MethodRandom  Method = "random"
)

// Input carries everything needed to build one substitute
type Input struct {
	ParticipantID int
	Race          models.Race
	Config        rules.Config
	Drivers       []models.Driver
	// Previous is the participant's prediction for the preceding race of the
	// same season, nil when there is none.
	Previous    *models.Prediction
	FirstRace   bool
	GeneratedAt time.Time
}

// Outcome is a generated, validated prediction
type Outcome struct {
	Prediction models.Prediction `json:"prediction"`
	Method     Method            `json:"method"`
	Attempts   int               `json:"attempts"`
}

// Generator produces substitute predictions. It is safe for concurrent use.
type Generator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	maxAttempts int
}

// NewGenerator creates a Generator drawing from src. A nil src seeds from the
// runtime's random source; maxAttempts <= 0 uses DefaultAttempts.
func NewGenerator(src rand.Source, maxAttempts int) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultAttempts
	}
	return &Generator{rng: rand.New(src), maxAttempts: maxAttempts}
}

// Generate returns a prediction for in.Race that passes scoring.Validate, or a
// Generation error when none can be built.
func (g *Generator) Generate(in Input) (Outcome, error) {
	pool := activeDrivers(in.Drivers)
	if err := Feasible(in.Config, pool); err != nil {
		return Outcome{}, err
	}
	roster := scoring.NewRoster(pool)

	autoCount := 1
	if in.Previous != nil {
		autoCount = in.Previous.AutoCount + 1
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if in.Previous != nil && !in.FirstRace {
		if pred, ok := g.adapt(*in.Previous, in.Config, pool, roster); ok {
			g.stamp(&pred, in, autoCount)
			if scoring.Validate(pred, in.Config, roster).Valid {
				return Outcome{Prediction: pred, Method: MethodAdapted, Attempts: 1}, nil
			}
		}
	}

	var last scoring.Verdict
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		pred, err := g.random(in.Config, pool)
		if err != nil {
			return Outcome{}, err
		}
		g.stamp(&pred, in, autoCount)
		last = scoring.Validate(pred, in.Config, roster)
		if last.Valid {
			return Outcome{Prediction: pred, Method: MethodRandom, Attempts: attempt}, nil
		}
	}
	return Outcome{}, errors.Generationf("no valid prediction after %d attempts: %s", g.maxAttempts, last.Reason)
}

func (g *Generator) stamp(pred *models.Prediction, in Input, autoCount int) {
	pred.ParticipantID = in.ParticipantID
	pred.RaceID = in.Race.ID
	pred.SubmittedAt = in.GeneratedAt
	pred.AutoCount = autoCount
}

// RequiredDrivers is the number of picks a generated prediction uses: the
// configured minimum, raised when the cap forces more drivers to absorb the
// chip total.
func RequiredDrivers(cfg rules.Config) int {
	byCap := (cfg.TotalChips + cfg.MaxChipsPerDriver - 1) / cfg.MaxChipsPerDriver
	return max(cfg.MinDrivers, byCap)
}

// Feasible reports whether any valid prediction exists for cfg over pool.
// One driver is reserved for the 11th-place guess.
func Feasible(cfg rules.Config, pool []models.Driver) error {
	if cfg.TotalChips < 1 || cfg.MaxChipsPerDriver < 1 {
		return errors.Generation("rule configuration has no chips to allocate")
	}
	needed := RequiredDrivers(cfg)
	if needed > cfg.TotalChips {
		return errors.Generationf("%d drivers are required but only %d chips are available", needed, cfg.TotalChips)
	}
	if len(pool) < needed+1 {
		return errors.Generationf("driver pool too small: %d drivers required plus an 11th-place guess, %d available", needed, len(pool))
	}
	if !cfg.AllowSameConstructor {
		if teams := countConstructors(pool); teams < needed {
			return errors.Generationf("%d drivers from distinct constructors are required, only %d constructors available", needed, teams)
		}
	}
	return nil
}

// adapt carries prev forward under cfg. It clamps chips to the cap, drops
// picks that are no longer allowed, expands to the minimum driver count and
// then moves chips one unit at a time until the total matches.
func (g *Generator) adapt(prev models.Prediction, cfg rules.Config, pool []models.Driver, roster scoring.Roster) (models.Prediction, bool) {
	ordered := slices.Clone(prev.Picks)
	slices.SortStableFunc(ordered, func(a, b models.Pick) int {
		return cmp.Compare(b.Chips, a.Chips)
	})

	eleventh := prev.EleventhDriverID
	if _, ok := roster[eleventh]; !ok {
		eleventh = 0
	}

	var picks []models.Pick
	used := make(map[int]bool)
	teams := make(map[string]bool)
	for _, p := range ordered {
		d, ok := roster[p.DriverID]
		if !ok || p.Chips < 1 || used[p.DriverID] || p.DriverID == eleventh {
			continue
		}
		if !cfg.AllowSameConstructor && teams[d.Constructor] {
			continue
		}
		picks = append(picks, models.Pick{DriverID: p.DriverID, Chips: min(p.Chips, cfg.MaxChipsPerDriver)})
		used[p.DriverID] = true
		teams[d.Constructor] = true
	}

	expand := func() bool {
		d, ok := nextExpansion(pool, used, teams, eleventh, cfg.AllowSameConstructor)
		if !ok {
			return false
		}
		picks = append(picks, models.Pick{DriverID: d.ID, Chips: 1})
		used[d.ID] = true
		teams[d.Constructor] = true
		return true
	}

	for len(picks) < cfg.MinDrivers {
		if !expand() {
			return models.Prediction{}, false
		}
	}

	diff := cfg.TotalChips - sumChips(picks)
	for diff > 0 {
		if i := mostRoomUp(picks, cfg.MaxChipsPerDriver); i >= 0 {
			picks[i].Chips++
			diff--
			continue
		}
		if !expand() {
			return models.Prediction{}, false
		}
		diff--
	}
	for diff < 0 {
		if i := mostRoomDown(picks); i >= 0 {
			picks[i].Chips--
			diff++
			continue
		}
		// Every pick is at one chip: shed drivers above the minimum.
		if len(picks) <= cfg.MinDrivers {
			return models.Prediction{}, false
		}
		dropped := picks[len(picks)-1]
		picks = picks[:len(picks)-1]
		delete(used, dropped.DriverID)
		diff++
	}

	if eleventh == 0 {
		candidates := unused(pool, used)
		if len(candidates) == 0 {
			return models.Prediction{}, false
		}
		eleventh = candidates[g.rng.IntN(len(candidates))].ID
	}

	return models.Prediction{Picks: picks, EleventhDriverID: eleventh}, true
}

// random draws RequiredDrivers drivers spread over as many constructors as
// possible, gives each one chip, and hands out the rest one unit at a time.
func (g *Generator) random(cfg rules.Config, pool []models.Driver) (models.Prediction, error) {
	needed := RequiredDrivers(cfg)

	shuffled := slices.Clone(pool)
	g.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var selected []models.Driver
	picked := make(map[int]bool)
	teams := make(map[string]bool)
	for _, d := range shuffled {
		if len(selected) == needed {
			break
		}
		if !teams[d.Constructor] {
			selected = append(selected, d)
			picked[d.ID] = true
			teams[d.Constructor] = true
		}
	}
	if len(selected) < needed && cfg.AllowSameConstructor {
		for _, d := range shuffled {
			if len(selected) == needed {
				break
			}
			if !picked[d.ID] {
				selected = append(selected, d)
				picked[d.ID] = true
			}
		}
	}
	if len(selected) < needed {
		return models.Prediction{}, errors.Generationf("could only select %d of %d required drivers", len(selected), needed)
	}

	picks := make([]models.Pick, len(selected))
	for i, d := range selected {
		picks[i] = models.Pick{DriverID: d.ID, Chips: 1}
	}
	for remaining := cfg.TotalChips - needed; remaining > 0; remaining-- {
		var open []int
		for i, p := range picks {
			if p.Chips < cfg.MaxChipsPerDriver {
				open = append(open, i)
			}
		}
		if len(open) == 0 {
			return models.Prediction{}, errors.Generation("chip cap leaves no room for the remaining chips")
		}
		picks[open[g.rng.IntN(len(open))]].Chips++
	}

	candidates := unused(pool, picked)
	if len(candidates) == 0 {
		candidates = pool
	}
	eleventh := candidates[g.rng.IntN(len(candidates))].ID

	return models.Prediction{Picks: picks, EleventhDriverID: eleventh}, nil
}

// nextExpansion returns the lowest-id unused driver, preferring constructors
// not yet represented. Repeats are only offered when allowSame is set.
func nextExpansion(pool []models.Driver, used map[int]bool, teams map[string]bool, eleventh int, allowSame bool) (models.Driver, bool) {
	var fallback *models.Driver
	for i := range pool {
		d := pool[i]
		if used[d.ID] || d.ID == eleventh {
			continue
		}
		if !teams[d.Constructor] {
			return d, true
		}
		if allowSame && fallback == nil {
			fallback = &pool[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return models.Driver{}, false
}

func mostRoomUp(picks []models.Pick, limit int) int {
	best, room := -1, 0
	for i, p := range picks {
		if r := limit - p.Chips; r > room {
			best, room = i, r
		}
	}
	return best
}

func mostRoomDown(picks []models.Pick) int {
	best, room := -1, 0
	for i, p := range picks {
		if r := p.Chips - 1; r > room {
			best, room = i, r
		}
	}
	return best
}

func sumChips(picks []models.Pick) int {
	total := 0
	for _, p := range picks {
		total += p.Chips
	}
	return total
}

func unused(pool []models.Driver, used map[int]bool) []models.Driver {
	var out []models.Driver
	for _, d := range pool {
		if !used[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// activeDrivers returns the active drivers ordered by id, without duplicates
func activeDrivers(drivers []models.Driver) []models.Driver {
	seen := make(map[int]bool, len(drivers))
	var out []models.Driver
	for _, d := range drivers {
		if d.Active && !seen[d.ID] {
			seen[d.ID] = true
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b models.Driver) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func countConstructors(pool []models.Driver) int {
	teams := make(map[string]bool)
	for _, d := range pool {
		teams[d.Constructor] = true
	}
	return len(teams)
}
