package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 10},
		{"default bucket size for negative", -1, 10},
		{"custom bucket size", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(1, 2, "processing") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSamplerPhaseChange(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog(0, 0, "scanning") {
		t.Error("first phase should log")
	}
	if s.ShouldLog(0, 0, "scanning") {
		t.Error("same phase without total should not log again")
	}
	if !s.ShouldLog(0, 40, " processing ") {
		t.Error("new phase should log")
	}
	if s.lastPhase != "processing" {
		t.Errorf("lastPhase = %q, want processing", s.lastPhase)
	}
}

func TestProgressSamplerFileBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(0, 200, "processing")

	if s.ShouldLog(10, 200, "processing") {
		t.Error("5% should stay in the first bucket")
	}
	if !s.ShouldLog(20, 200, "processing") {
		t.Error("10% should log")
	}
	if s.ShouldLog(39, 200, "processing") {
		t.Error("19.5% should not log")
	}
	if !s.ShouldLog(200, 200, "processing") {
		t.Error("completion should log")
	}
	if s.ShouldLog(250, 200, "processing") {
		t.Error("overshoot should clamp to the final bucket")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(5, 10, "processing")
	s.Reset()
	if s.lastPhase != "" || s.lastBucket != -1 {
		t.Fatalf("unexpected state after reset: %+v", s)
	}
	if !s.ShouldLog(5, 10, "processing") {
		t.Error("should log after reset")
	}
}
