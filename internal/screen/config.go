package screen

import (
	"fmt"
	"time"
)

// ModelConfig identifies one voter in the model set.
type ModelConfig struct {
	ID       string `json:"id" yaml:"id"`
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// RunConfig is the immutable run-wide configuration threaded through
// orchestrator, escalation controller, and consensus aggregator. It is
// passed by value; nothing reads ambient global state, which is what keeps
// concurrent record processing deterministic.
type RunConfig struct {
	Models []ModelConfig `json:"models" yaml:"models"`

	// QuorumSize is the number of models consulted at tier 1.
	QuorumSize int `json:"quorum_size" yaml:"quorum_size"`
	// MaxTier bounds escalation; reaching it without conclusiveness forces
	// HUMAN_REVIEW.
	MaxTier int `json:"max_tier" yaml:"max_tier"`

	// Decision thresholds compared against the net weighted vote margin
	// (sum of polarity x confidence over non-error votes).
	UpperThreshold float64 `json:"upper_threshold" yaml:"upper_threshold"`
	LowerThreshold float64 `json:"lower_threshold" yaml:"lower_threshold"`
	// AgreementSpread is the max spread of signed vote values for a tier to
	// count as conclusive on agreement alone.
	AgreementSpread float64 `json:"agreement_spread" yaml:"agreement_spread"`

	Workers      int           `json:"workers" yaml:"workers"`
	Seed         int64         `json:"seed" yaml:"seed"`
	Temperature  float64       `json:"temperature" yaml:"temperature"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	Retries      int           `json:"retries" yaml:"retries"`
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
}

// DefaultRunConfig returns the documented policy defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		QuorumSize:      2,
		MaxTier:         3,
		UpperThreshold:  0.6,
		LowerThreshold:  -0.6,
		AgreementSpread: 0.5,
		Workers:         4,
		Seed:            42,
		Temperature:     0,
		Timeout:         30 * time.Second,
		Retries:         2,
		RetryBackoff:    250 * time.Millisecond,
	}
}

// Validate reports configuration-level errors that are fatal at run start.
func (c RunConfig) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("run config: no models configured")
	}
	if c.QuorumSize < 1 {
		return fmt.Errorf("run config: quorum size %d < 1", c.QuorumSize)
	}
	if c.MaxTier < 1 || c.MaxTier > 3 {
		return fmt.Errorf("run config: max tier %d outside 1..3", c.MaxTier)
	}
	if c.UpperThreshold <= c.LowerThreshold {
		return fmt.Errorf("run config: upper threshold %.2f <= lower threshold %.2f",
			c.UpperThreshold, c.LowerThreshold)
	}
	if c.Workers < 1 {
		return fmt.Errorf("run config: workers %d < 1", c.Workers)
	}
	return nil
}

// TierModels returns the models newly consulted at the given tier.
// Tier 1 takes the first QuorumSize models, tier 2 the next model, tier 3
// the rest. When MaxTier is 2, everything beyond the quorum lands at tier 2.
func (c RunConfig) TierModels(tier int) []ModelConfig {
	q := c.QuorumSize
	if q > len(c.Models) {
		q = len(c.Models)
	}
	switch tier {
	case 1:
		return c.Models[:q]
	case 2:
		if q >= len(c.Models) {
			return nil
		}
		if c.MaxTier == 2 {
			return c.Models[q:]
		}
		return c.Models[q : q+1]
	case 3:
		if q+1 >= len(c.Models) {
			return nil
		}
		return c.Models[q+1:]
	default:
		return nil
	}
}
