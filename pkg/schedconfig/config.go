package schedconfig

import "github.com/cuemby/rcspd/pkg/validate"

// Strategy selects the sort key used to order the eligible set at every
// forward-pass step.
type Strategy string

const (
	StrategyPriorityFirst Strategy = "priority_first"
	StrategyCRFirst       Strategy = "cr_first"
	StrategyWeighted      Strategy = "weighted"
	StrategyATC           Strategy = "atc"
)

// AlgorithmType selects which scheduling algorithm runs.
type AlgorithmType string

const (
	AlgorithmParallelSGS    AlgorithmType = "parallel_sgs"
	AlgorithmBoundedRollout AlgorithmType = "bounded_rollout"
	AlgorithmCPSAT          AlgorithmType = "cpsat"
)

// PreProcessorType selects which pre-processor runs ahead of the
// algorithm.
type PreProcessorType string

const (
	PreProcessorAuto         PreProcessorType = "auto"
	PreProcessorBackwardPass PreProcessorType = "backward_pass"
	PreProcessorNone         PreProcessorType = "none"
)

// RolloutConfig tunes the bounded-rollout algorithm's deferral gates and
// simulation horizon.
type RolloutConfig struct {
	PriorityThreshold int
	MinPriorityGap    int
	CRRelaxedThreshold float64
	MinCRUrgencyGap    float64
	MaxHorizonDays     int
}

// CPSATConfig tunes the CP-SAT solver's search budget and objective
// weights.
type CPSATConfig struct {
	TimeLimitSeconds      float64
	TardinessWeight       float64
	PriorityWeight        float64
	EarlinessWeight       float64
	RandomSeed            int64
	UseGreedyHints        bool
	WarnOnIncompleteHints bool
	LogSolverProgress     bool
}

// Config is the immutable scheduling configuration consumed by every
// algorithm and pre-processor.
type Config struct {
	AutoConstraintFromTimeframe validate.TimeframeConstraintMode

	Strategy     Strategy
	CRWeight     float64
	PriorityWeight float64

	DefaultPriority     int
	DefaultCRMultiplier float64
	DefaultCRFloor      float64

	ATCK                       float64
	ATCDefaultUrgencyMultiplier float64
	ATCDefaultUrgencyFloor      float64

	Algorithm    AlgorithmType
	PreProcessor PreProcessorType

	Rollout RolloutConfig
	CPSAT   CPSATConfig
}

// Default returns the configuration used when the caller supplies none,
// mirroring every field default of the upstream scheduling configuration.
func Default() *Config {
	return &Config{
		AutoConstraintFromTimeframe: validate.TimeframeBoth,
		Strategy:                    StrategyWeighted,
		CRWeight:                    10.0,
		PriorityWeight:              1.0,
		DefaultPriority:             50,
		DefaultCRMultiplier:         2.0,
		DefaultCRFloor:              10.0,
		ATCK:                        2.0,
		ATCDefaultUrgencyMultiplier: 1.0,
		ATCDefaultUrgencyFloor:      0.3,
		Algorithm:                   AlgorithmParallelSGS,
		PreProcessor:                PreProcessorAuto,
		Rollout: RolloutConfig{
			PriorityThreshold:  70,
			MinPriorityGap:     20,
			CRRelaxedThreshold: 5.0,
			MinCRUrgencyGap:    3.0,
			MaxHorizonDays:     30,
		},
		CPSAT: CPSATConfig{
			TimeLimitSeconds:      30.0,
			TardinessWeight:       100.0,
			PriorityWeight:        1.0,
			EarlinessWeight:       0.0,
			RandomSeed:            42,
			UseGreedyHints:        true,
			WarnOnIncompleteHints: true,
			LogSolverProgress:     false,
		},
	}
}
