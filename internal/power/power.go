// Package power decides when animations should be skipped to save work.
package power

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"

	"github.com/yourusername/tiler/internal/logging"
)

// EnvLowPower forces low-power mode when set to a true value.
const EnvLowPower = "TILER_LOW_POWER"

const (
	// normalized one-minute load above which the machine counts as busy
	loadThreshold = 0.9
	cacheFor      = 5 * time.Second
)

// Detector reports low-power mode, caching the load sample.
type Detector struct {
	// Sample returns the one-minute load average and the logical CPU count.
	Sample func() (load1 float64, cpus int, err error)
	Getenv func(string) string
	Now    func() time.Time

	mu      sync.Mutex
	checked time.Time
	low     bool
}

// NewDetector samples the system through gopsutil
func NewDetector() *Detector {
	return &Detector{Sample: sample, Getenv: os.Getenv, Now: time.Now}
}

func sample() (float64, int, error) {
	avg, err := load.Avg()
	if err != nil {
		return 0, 0, err
	}
	n, err := cpu.Counts(true)
	if err != nil {
		return 0, 0, err
	}
	return avg.Load1, n, nil
}

// LowPower reports whether animations should be skipped.
func (d *Detector) LowPower() bool {
	if v := d.Getenv(EnvLowPower); v != "" {
		on, err := strconv.ParseBool(v)
		if err == nil {
			return on
		}
		logging.Warn().Str("value", v).Msg("ignoring invalid " + EnvLowPower)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.Now()
	if !d.checked.IsZero() && now.Sub(d.checked) < cacheFor {
		return d.low
	}
	d.checked = now

	load1, cpus, err := d.Sample()
	if err != nil || cpus <= 0 {
		logging.Debug().Err(err).Msg("load sample unavailable")
		d.low = false
		return false
	}
	d.low = load1/float64(cpus) > loadThreshold
	if d.low {
		logging.Debug().Float64("load1", load1).Int("cpus", cpus).Msg("low power: skipping animations")
	}
	return d.low
}

var (
	defaultOnce     sync.Once
	defaultDetector *Detector
)

// LowPower uses a process-wide Detector
func LowPower() bool {
	defaultOnce.Do(func() { defaultDetector = NewDetector() })
	return defaultDetector.LowPower()
}
