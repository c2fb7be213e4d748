package util

import "testing"

func TestSizeHistogramEmpty(t *testing.T) {
	h := NewSizeHistogram()

	if h.GetCount() != 0 {
		t.Errorf("Expected count 0, got %d", h.GetCount())
	}
	if h.TotalBytes() != 0 {
		t.Errorf("Expected 0 total bytes, got %d", h.TotalBytes())
	}
	if h.AverageSize() != 0 {
		t.Errorf("Expected average 0, got %d", h.AverageSize())
	}
	if h.MedianEstimate() != 0 {
		t.Errorf("Expected median estimate 0, got %d", h.MedianEstimate())
	}
	if h.GetPercentileEstimate(95) != 0 {
		t.Errorf("Expected percentile estimate 0, got %d", h.GetPercentileEstimate(95))
	}
}

func TestSizeHistogramCounting(t *testing.T) {
	h := NewSizeHistogram()
	for i := 0; i < 4; i++ {
		h.AddSample(10)
	}

	if h.GetCount() != 4 {
		t.Errorf("Expected count 4, got %d", h.GetCount())
	}
	if h.TotalBytes() != 40 {
		t.Errorf("Expected 40 total bytes, got %d", h.TotalBytes())
	}
	if h.AverageSize() != 10 {
		t.Errorf("Expected average 10, got %d", h.AverageSize())
	}
}

func TestSizeHistogramPercentiles(t *testing.T) {
	h := NewSizeHistogram()
	// three samples in the first bucket (<=16), one in the third (<=256)
	h.AddSample(10)
	h.AddSample(12)
	h.AddSample(14)
	h.AddSample(100)

	// the middle sample falls into the first bucket, estimated at half its
	// upper boundary
	if got := h.MedianEstimate(); got != 8 {
		t.Errorf("Expected median estimate 8, got %d", got)
	}
	// the 95th percentile sample falls into the third bucket, estimated at
	// the bucket midpoint
	if got := h.GetPercentileEstimate(95); got != (64+256)/2 {
		t.Errorf("Expected p95 estimate %d, got %d", (64+256)/2, got)
	}

	if got := h.GetPercentileEstimate(-1); got != 0 {
		t.Errorf("Expected 0 for out-of-range percentile, got %d", got)
	}
	if got := h.GetPercentileEstimate(101); got != 0 {
		t.Errorf("Expected 0 for out-of-range percentile, got %d", got)
	}
}

func TestSizeHistogramOverflowBucket(t *testing.T) {
	h := NewSizeHistogram()
	h.AddSample(8 * 1024 * 1024 * 1024)

	// samples beyond the last boundary land in the overflow bucket,
	// estimated at twice the last boundary
	if got := h.GetPercentileEstimate(99); got != 2*4294967296 {
		t.Errorf("Expected overflow estimate %d, got %d", 2*4294967296, got)
	}
}
