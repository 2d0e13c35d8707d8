package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"one per cpu", 1.0, 0, cpus},
		{"two per cpu", 2.0, 0, cpus * 2},
		{"capped", 2.0, 1, 1},
		{"never zero", 0.0001, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		env   string
		limit int
		want  int
	}{
		{"5", 0, 5},
		{"5", 3, 3},
		{"0", 1, 1},
		{"-2", 1, 1},
		{"lots", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.env)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count with %s=%q = %d, want %d", EnvOverride, tt.env, got, tt.want)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	t.Setenv(EnvOverride, "")
	if got, want := ForCPU(0), runtime.GOMAXPROCS(0); got != want {
		t.Errorf("ForCPU(0) = %d, want %d", got, want)
	}
	if got, want := ForIO(0), runtime.GOMAXPROCS(0)*2; got != want {
		t.Errorf("ForIO(0) = %d, want %d", got, want)
	}
}

func TestStatWorkers(t *testing.T) {
	t.Setenv(EnvOverride, "")
	if got := StatWorkers(); got < 1 || got > StatLimit {
		t.Errorf("StatWorkers() = %d, want 1..%d", got, StatLimit)
	}

	t.Setenv(EnvOverride, "12")
	if got := StatWorkers(); got != 12 {
		t.Errorf("StatWorkers() with override = %d, want 12", got)
	}
}
