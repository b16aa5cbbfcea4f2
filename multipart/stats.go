package multipart

import "time"

// Stats tracks part upload durations and transferred bytes of one worker.
// It is not safe for concurrent use; every FileUploader owns its own Stats.
type Stats struct {
	sum           time.Duration
	bytes         int64
	finishedParts int64
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

// Update records a successful part upload.
func (s *Stats) Update(d time.Duration, size int64) {
	s.sum += d
	s.bytes += size
	s.finishedParts++
}

// Average returns the average upload duration for completed parts.
func (s *Stats) Average() time.Duration {
	if s.finishedParts == 0 {
		return 0
	}
	return s.sum / time.Duration(s.finishedParts)
}

// FinishedCount returns the number of completed part uploads.
func (s *Stats) FinishedCount() int64 {
	return s.finishedParts
}

// TotalDuration returns the sum of all part upload durations.
func (s *Stats) TotalDuration() time.Duration {
	return s.sum
}

// TotalBytes returns the number of bytes uploaded in completed parts.
func (s *Stats) TotalBytes() int64 {
	return s.bytes
}

// BytesPerSecond returns the average part throughput.
func (s *Stats) BytesPerSecond() float64 {
	if s.sum <= 0 {
		return 0
	}
	return float64(s.bytes) / s.sum.Seconds()
}
