package residency

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can write human-readable
// durations like "2s" or "500ms" in both YAML and JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, value.Value)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(time.Duration(v))
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: duration %q", ErrInvalidConfig, v)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("%w: duration %v", ErrInvalidConfig, raw)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config holds every residency tunable. The debounce and idle-eviction
// windows are empirical knobs with no derivation; deployments are
// expected to adjust them against their own scenes.
type Config struct {
	// Visibility
	MaxRenderDistance float64 `json:"max_render_distance" yaml:"max_render_distance"`

	// Base quality distances, scaled per cycle by the bucket table.
	BaseHighDistance float64  `json:"base_high_distance" yaml:"base_high_distance"`
	BaseLowDistance  float64  `json:"base_low_distance" yaml:"base_low_distance"`
	Buckets          []Bucket `json:"buckets" yaml:"buckets"`

	// Cache capacity per tier.
	CapacityHigh int `json:"capacity_high" yaml:"capacity_high"`
	CapacityLow  int `json:"capacity_low" yaml:"capacity_low"`

	// Churn control
	MinUpdateInterval Duration `json:"min_update_interval" yaml:"min_update_interval"`
	IdleGracePeriod   Duration `json:"idle_grace_period" yaml:"idle_grace_period"`

	// Cadence: policy recomputation runs every CycleEveryFrames frames.
	CycleEveryFrames int `json:"cycle_every_frames" yaml:"cycle_every_frames"`

	// Fetch pipeline
	FetchWorkers     int      `json:"fetch_workers" yaml:"fetch_workers"`
	FetchQueueSize   int      `json:"fetch_queue_size" yaml:"fetch_queue_size"`
	FetchTimeout     Duration `json:"fetch_timeout" yaml:"fetch_timeout"`
	FetchRetryCycles uint64   `json:"fetch_retry_cycles" yaml:"fetch_retry_cycles"`

	// Observability
	StatsBufferSize int `json:"stats_buffer_size" yaml:"stats_buffer_size"`
}

// DefaultConfig returns the tuning used when no configuration file is
// supplied. Bucket boundaries follow the documented step function:
// more than 150 visible halves the radii, under 50 widens them by half.
func DefaultConfig() Config {
	return Config{
		MaxRenderDistance: 120,
		BaseHighDistance:  30,
		BaseLowDistance:   80,
		Buckets: []Bucket{
			{FromVisible: 151, Multiplier: 0.5},
			{FromVisible: 100, Multiplier: 0.75},
			{FromVisible: 50, Multiplier: 1.0},
			{FromVisible: 0, Multiplier: 1.5},
		},
		CapacityHigh:      64,
		CapacityLow:       256,
		MinUpdateInterval: Duration(2 * time.Second),
		IdleGracePeriod:   Duration(10 * time.Second),
		CycleEveryFrames:  10,
		FetchWorkers:      4,
		FetchQueueSize:    128,
		FetchTimeout:      Duration(3 * time.Second),
		FetchRetryCycles:  5,
		StatsBufferSize:   512,
	}
}

// Validate checks internal consistency. It is called by NewManager, so
// a Manager can only exist over a valid Config.
func (c Config) Validate() error {
	if c.MaxRenderDistance <= 0 {
		return fmt.Errorf("%w: max_render_distance %v", ErrInvalidConfig, c.MaxRenderDistance)
	}
	if c.BaseHighDistance <= 0 || c.BaseLowDistance <= 0 {
		return fmt.Errorf("%w: base distances must be positive", ErrInvalidConfig)
	}
	if c.BaseHighDistance > c.BaseLowDistance {
		return ErrInvalidDistances
	}
	if c.CapacityHigh <= 0 || c.CapacityLow <= 0 {
		return ErrInvalidCapacity
	}
	if c.MinUpdateInterval < 0 || c.IdleGracePeriod < 0 {
		return fmt.Errorf("%w: debounce and grace windows must not be negative", ErrInvalidConfig)
	}
	if c.CycleEveryFrames <= 0 {
		return fmt.Errorf("%w: cycle_every_frames %d", ErrInvalidConfig, c.CycleEveryFrames)
	}
	if len(c.Buckets) == 0 {
		return fmt.Errorf("%w: at least one bucket required", ErrInvalidBuckets)
	}
	for i := 0; i < len(c.Buckets); i++ {
		b := c.Buckets[i]
		if b.FromVisible < 0 || b.Multiplier <= 0 {
			return fmt.Errorf("%w: bucket %d", ErrInvalidBuckets, i)
		}
		if i > 0 {
			prev := c.Buckets[i-1]
			// Sorted descending by boundary, multipliers never shrink
			// as the visible count drops: thresholds stay monotonic.
			if b.FromVisible >= prev.FromVisible || b.Multiplier < prev.Multiplier {
				return fmt.Errorf("%w: bucket %d", ErrInvalidBuckets, i)
			}
		}
	}
	if c.Buckets[len(c.Buckets)-1].FromVisible != 0 {
		return fmt.Errorf("%w: last bucket must cover zero", ErrInvalidBuckets)
	}
	return nil
}

// LoadYAML reads a Config from YAML, starting from defaults so omitted
// fields keep their documented values.
func LoadYAML(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadJSON is the JSON twin of LoadYAML.
func LoadJSON(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
