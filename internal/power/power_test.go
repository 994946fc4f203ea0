package power

import (
	"errors"
	"testing"
	"time"
)

func TestLowPower(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		load1 float64
		cpus  int
		err   error
		want  bool
	}{
		{"idle", "", 0.5, 4, nil, false},
		{"busy", "", 4, 4, nil, true},
		{"env on", "1", 0, 4, nil, true},
		{"env off", "false", 40, 4, nil, false},
		{"invalid env falls through", "maybe", 8, 4, nil, true},
		{"sample error", "", 0, 0, errors.New("no load"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Detector{
				Sample: func() (float64, int, error) { return tt.load1, tt.cpus, tt.err },
				Getenv: func(string) string { return tt.env },
				Now:    time.Now,
			}
			if got := d.LowPower(); got != tt.want {
				t.Errorf("LowPower() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLowPowerCachesSample(t *testing.T) {
	calls := 0
	now := time.Unix(1000, 0)
	d := &Detector{
		Sample: func() (float64, int, error) { calls++; return 0, 1, nil },
		Getenv: func(string) string { return "" },
		Now:    func() time.Time { return now },
	}

	d.LowPower()
	d.LowPower()
	if calls != 1 {
		t.Errorf("samples = %d, want 1", calls)
	}

	now = now.Add(cacheFor)
	d.LowPower()
	if calls != 2 {
		t.Errorf("samples after expiry = %d, want 2", calls)
	}
}
