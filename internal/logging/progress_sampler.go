package logging

// ProgressSampler suppresses repetitive per-file progress logs during long
// verify and transfer stages, emitting once per percentage bucket.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when progress crosses a
// bucket boundary (default 10%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether progress of done out of total items deserves a log
// line. The final item always logs.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil || total <= 0 {
		return true
	}
	if done >= total {
		done = total
	}
	percent := float64(done) / float64(total) * 100
	bucket := int(percent / s.bucketSize)
	if bucket > s.lastBucket || done == total {
		s.lastBucket = bucket
		return true
	}
	return false
}

// Reset clears the sampler state before a new stage starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = -1
}
