package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	if s := NewProgressSampler(0); s.bucketSize != 10 || s.lastBucket != -1 {
		t.Fatalf("unexpected sampler %+v", s)
	}
	if s := NewProgressSampler(25); s.bucketSize != 25 {
		t.Fatalf("unexpected bucket size %v", s.bucketSize)
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	var emitted []int
	for done := 1; done <= 40; done++ {
		if s.ShouldLog(done, 40) {
			emitted = append(emitted, done)
		}
	}
	// 40 items at 10% buckets: items 1 (2.5%), 4, 8, ... 40
	want := []int{1, 4, 8, 12, 16, 20, 24, 28, 32, 36, 40}
	if len(emitted) != len(want) {
		t.Fatalf("emitted %v, want %v", emitted, want)
	}
	for i := range want {
		if emitted[i] != want[i] {
			t.Fatalf("emitted %v, want %v", emitted, want)
		}
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(50)
	if !s.ShouldLog(1, 4) {
		t.Fatal("first item should log")
	}
	if s.ShouldLog(1, 4) {
		t.Fatal("same bucket should not log twice")
	}
	s.Reset()
	if !s.ShouldLog(1, 4) {
		t.Fatal("reset sampler should log again")
	}
}

func TestProgressSamplerNilAndEmpty(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(1, 2) {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
	if !NewProgressSampler(10).ShouldLog(0, 0) {
		t.Fatal("zero total should log")
	}
}
