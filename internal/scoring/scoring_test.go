package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/rules"
)

// Driver ids used throughout: A=1, B=2, C=3, D=4, E=5 (E shares a team with A).
var testDrivers = []models.Driver{
	{ID: 1, Name: "A", Constructor: "Red", Active: true},
	{ID: 2, Name: "B", Constructor: "Blue", Active: true},
	{ID: 3, Name: "C", Constructor: "Green", Active: true},
	{ID: 4, Name: "D", Constructor: "Yellow", Active: true},
	{ID: 5, Name: "E", Constructor: "Red", Active: true},
}

func baseConfig(raceType models.RaceType) rules.Config {
	return rules.Resolve("2025", raceType, nil, nil)
}

func samplePrediction() models.Prediction {
	return models.Prediction{
		ParticipantID:    1,
		RaceID:           1,
		Picks:            []models.Pick{{DriverID: 1, Chips: 10}, {DriverID: 2, Chips: 3}, {DriverID: 3, Chips: 2}},
		EleventhDriverID: 4,
	}
}

func sampleResult() models.RaceResult {
	return models.RaceResult{
		RaceID:    1,
		Positions: map[int]int{1: 1, 2: 2, models.EleventhPosition: 4},
	}
}

func TestValidate_AcceptsValidPrediction(t *testing.T) {
	v := Validate(samplePrediction(), baseConfig(models.RaceNormal), NewRoster(testDrivers))

	assert.True(t, v.Valid, v.Reason)
	assert.NoError(t, v.Err())
}

func TestValidate_Rejections(t *testing.T) {
	strict := baseConfig(models.RaceNormal)
	strict.MaxChipsPerDriver = 9
	strict.AllowSameConstructor = false
	strict.MinDrivers = 3

	tests := []struct {
		name   string
		cfg    rules.Config
		pred   models.Prediction
		reason string
	}{
		{
			name:   "no picks",
			cfg:    strict,
			pred:   models.Prediction{EleventhDriverID: 4},
			reason: "prediction has no picks",
		},
		{
			name:   "unknown driver",
			cfg:    strict,
			pred:   models.Prediction{Picks: []models.Pick{{DriverID: 99, Chips: 15}}, EleventhDriverID: 4},
			reason: "driver 99 is not in the driver pool",
		},
		{
			name:   "duplicate driver",
			cfg:    strict,
			pred:   models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 7}, {DriverID: 1, Chips: 8}}, EleventhDriverID: 4},
			reason: "driver A is picked more than once",
		},
		{
			name:   "chip sum",
			cfg:    strict,
			pred:   models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 5}, {DriverID: 2, Chips: 5}, {DriverID: 3, Chips: 4}}, EleventhDriverID: 4},
			reason: "chip total must be 15, got 14",
		},
		{
			name:   "cap",
			cfg:    strict,
			pred:   samplePrediction(),
			reason: "driver A has 10 chips; the maximum per driver is 9",
		},
		{
			name:   "same constructor",
			cfg:    strict,
			pred:   models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 5}, {DriverID: 5, Chips: 5}, {DriverID: 3, Chips: 5}}, EleventhDriverID: 4},
			reason: "drivers A and E both drive for Red; pick drivers from different constructors",
		},
		{
			name:   "minimum drivers",
			cfg:    strict,
			pred:   models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 8}, {DriverID: 2, Chips: 7}}, EleventhDriverID: 4},
			reason: "at least 3 drivers are required, got 2",
		},
		{
			name:   "missing eleventh",
			cfg:    strict,
			pred:   models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 5}, {DriverID: 2, Chips: 5}, {DriverID: 3, Chips: 5}}},
			reason: "an 11th-place guess is required",
		},
		{
			name:   "eleventh among picks",
			cfg:    strict,
			pred:   models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 5}, {DriverID: 2, Chips: 5}, {DriverID: 3, Chips: 5}}, EleventhDriverID: 3},
			reason: "11th-place guess C cannot also be a chip pick",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.pred, tt.cfg, NewRoster(testDrivers))
			assert.False(t, v.Valid)
			assert.Equal(t, tt.reason, v.Reason)
			assert.Error(t, v.Err())
		})
	}
}

func TestValidate_IgnoresZeroChipPicks(t *testing.T) {
	cfg := baseConfig(models.RaceNormal)
	cfg.MinDrivers = 3
	pred := samplePrediction()
	pred.Picks = append(pred.Picks, models.Pick{DriverID: 5, Chips: 0}, models.Pick{DriverID: 4, Chips: 0})

	v := Validate(pred, cfg, NewRoster(testDrivers))
	assert.True(t, v.Valid, v.Reason)

	onlyEmpty := models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 0}}, EleventhDriverID: 4}
	assert.Equal(t, "prediction has no picks", Validate(onlyEmpty, cfg, NewRoster(testDrivers)).Reason)
}

func TestValidate_NegativeChipsNamesUnnamedDriver(t *testing.T) {
	roster := NewRoster(append(testDrivers, models.Driver{ID: 6, Constructor: "Pink", Active: true}))
	pred := models.Prediction{
		Picks:            []models.Pick{{DriverID: 6, Chips: -1}, {DriverID: 1, Chips: 8}, {DriverID: 2, Chips: 8}},
		EleventhDriverID: 4,
	}

	v := Validate(pred, baseConfig(models.RaceNormal), roster)
	require.False(t, v.Valid)
	assert.Equal(t, "driver #6 has -1 chips; chips cannot be negative", v.Reason)
}

func TestValidate_SameConstructorAllowed(t *testing.T) {
	cfg := baseConfig(models.RaceNormal)
	cfg.AllowSameConstructor = true
	pred := models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 5}, {DriverID: 5, Chips: 5}, {DriverID: 3, Chips: 5}}, EleventhDriverID: 4}

	assert.True(t, Validate(pred, cfg, NewRoster(testDrivers)).Valid)
}

func TestValidate_ShortCircuitsInOrder(t *testing.T) {
	cfg := baseConfig(models.RaceNormal)
	cfg.MaxChipsPerDriver = 5
	// Wrong sum and over the cap: the sum check comes first.
	pred := models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 12}}, EleventhDriverID: 1}

	v := Validate(pred, cfg, NewRoster(testDrivers))
	assert.Equal(t, "chip total must be 15, got 12", v.Reason)
}

func TestScore_NormalRaceExample(t *testing.T) {
	b := Score(samplePrediction(), sampleResult(), baseConfig(models.RaceNormal))

	// 10x25 + 3x18 + 0 + 25
	assert.Equal(t, 250+54, b.Base)
	assert.Equal(t, 25, b.Bonus)
	assert.True(t, b.EleventhHit)
	assert.Equal(t, 329.0, b.Total)
}

func TestScore_SprintDoubledExample(t *testing.T) {
	cfg := baseConfig(models.RaceSprint)
	cfg.DoublePoints = true

	b := Score(samplePrediction(), sampleResult(), cfg)

	// (10x8 + 3x7 + 25) x 2
	assert.Equal(t, 101, b.Base)
	assert.True(t, b.Doubled)
	assert.Equal(t, 252.0, b.Total)
}

func TestScore_SprintWithoutDoubling(t *testing.T) {
	b := Score(samplePrediction(), sampleResult(), baseConfig(models.RaceSprint))

	assert.False(t, b.Doubled)
	assert.Equal(t, 126.0, b.Total)
}

func TestScore_NormalRaceIgnoresDoublingFlag(t *testing.T) {
	cfg := baseConfig(models.RaceNormal)
	cfg.DoublePoints = true

	assert.Equal(t, 329.0, Points(samplePrediction(), sampleResult(), cfg))
}

func TestScore_DNFPenaltyCanGoNegative(t *testing.T) {
	cfg := baseConfig(models.RaceNormal)
	cfg.DNFPenaltyEnabled = true
	cfg.DNFPenalty = 30

	pred := samplePrediction()
	res := models.RaceResult{
		RaceID:    1,
		Positions: map[int]int{1: 5, 10: 3},
		DNF:       []int{1, 2, 4},
	}

	b := Score(pred, res, cfg)
	// C at P10 earns 2x1; A and B DNF cost 30 each; D (11th guess) is not penalised.
	assert.Equal(t, 2, b.Base)
	assert.Equal(t, 2, b.DNFCount)
	assert.Equal(t, 60, b.Penalty)
	assert.Equal(t, -58.0, b.Total)
}

func TestScore_DNFIgnoredWhenDisabled(t *testing.T) {
	res := sampleResult()
	res.DNF = []int{3}

	assert.Equal(t, 329.0, Points(samplePrediction(), res, baseConfig(models.RaceNormal)))
}

func TestScore_OrderOfOperations(t *testing.T) {
	cfg := baseConfig(models.RaceSprint)
	cfg.DoublePoints = true
	cfg.DNFPenaltyEnabled = true
	cfg.DNFPenalty = 5
	cfg.AutoMissFactor = 0.75

	pred := samplePrediction()
	pred.AutoCount = 2
	res := sampleResult()
	res.DNF = []int{3}

	b := Score(pred, res, cfg)
	// base 101, +25 bonus, -5 penalty = 121; doubled 242; reduced 181.5
	assert.Equal(t, 181.5, b.Total)
	assert.True(t, b.Doubled)
	assert.True(t, b.Reduced)
}

func TestScore_ReductionOnlyFromSecondConsecutiveMiss(t *testing.T) {
	cfg := baseConfig(models.RaceNormal)

	pred := samplePrediction()
	pred.AutoCount = 1
	assert.Equal(t, 329.0, Points(pred, sampleResult(), cfg))

	pred.AutoCount = 3
	assert.Equal(t, 246.75, Points(pred, sampleResult(), cfg))
}

func TestReduce_Example(t *testing.T) {
	assert.Equal(t, 75.0, Reduce(100, 0.75))
	assert.Equal(t, 26.67, Reduce(33.333, 0.8))
}

func TestScore_IsDeterministic(t *testing.T) {
	cfg := baseConfig(models.RaceNormal)
	first := Score(samplePrediction(), sampleResult(), cfg)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Score(samplePrediction(), sampleResult(), cfg))
	}
}

func TestScore_PositionsOutsideTableEarnNothing(t *testing.T) {
	pred := models.Prediction{Picks: []models.Pick{{DriverID: 1, Chips: 15}}, EleventhDriverID: 2}
	res := models.RaceResult{Positions: map[int]int{11: 1, 12: 2}}

	b := Score(pred, res, baseConfig(models.RaceNormal))
	assert.Equal(t, 0, b.Base)
	assert.False(t, b.EleventhHit)
}

func TestValidateResult(t *testing.T) {
	assert.NoError(t, ValidateResult(sampleResult()))

	assert.Error(t, ValidateResult(models.RaceResult{RaceID: 1}))
	assert.Error(t, ValidateResult(models.RaceResult{RaceID: 1, Positions: map[int]int{0: 1}}))
	assert.Error(t, ValidateResult(models.RaceResult{RaceID: 1, Positions: map[int]int{1: 0}}))
	assert.Error(t, ValidateResult(models.RaceResult{RaceID: 1, Positions: map[int]int{1: 3, 2: 3}}))
	assert.Error(t, ValidateResult(models.RaceResult{RaceID: 1, Positions: map[int]int{1: 3}, DNF: []int{-1}}))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 180.0, Sum(100, 80))
	assert.Equal(t, 0.0, Sum())
}
