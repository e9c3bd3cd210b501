package supervisor

import (
	"fmt"
	"time"

	"github.com/taskmetrics/resourcetracker/pkg/rterrors"
)

// Config is the supervisor's accepted option set: any other
// option is rejected rather than silently ignored.
type Config struct {
	Interval     time.Duration
	ArtifactName string
	CreateCard   bool
}

// DefaultConfig returns its documented defaults: interval 1s,
// artifact_name "resource_tracker_data", create_card true.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Second,
		ArtifactName: "resource_tracker_data",
		CreateCard:   true,
	}
}

// Option mutates a Config under construction; NewConfig validates the
// final result.
type Option func(*Config)

// WithInterval overrides the sampling interval. secs must be a positive
// real number of seconds.
func WithInterval(secs float64) Option {
	return func(c *Config) {
		if secs > 0 {
			c.Interval = time.Duration(secs * float64(time.Second))
		} else {
			c.Interval = -1 // forces NewConfig to reject it
		}
	}
}

// WithArtifactName overrides the artifact's report label.
func WithArtifactName(name string) Option {
	return func(c *Config) { c.ArtifactName = name }
}

// WithCreateCard toggles HTML report generation.
func WithCreateCard(v bool) Option {
	return func(c *Config) { c.CreateCard = v }
}

// NewConfig builds a Config from DefaultConfig plus opts, rejecting any
// combination that leaves interval non-positive or artifact_name empty —
// its "any other options are rejected" reframed for a typed,
// closed option set: there is no freeform map to reject keys from, so
// validation instead rejects invalid *values* for the three known keys.
func NewConfig(opts ...Option) (Config, error) {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	if c.Interval <= 0 {
		return Config{}, fmt.Errorf("supervisor: interval must be positive: %w", rterrors.ErrInvalidConfig)
	}
	if c.ArtifactName == "" {
		return Config{}, fmt.Errorf("supervisor: artifact_name must be non-empty: %w", rterrors.ErrInvalidConfig)
	}
	return c, nil
}
