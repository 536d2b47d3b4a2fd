package service

// DefaultSmoothingAlpha balances jitter suppression against responsiveness
// for fixes arriving every few seconds.
const DefaultSmoothingAlpha = 0.25

// CoordinateSmoother is an exponential low-pass filter over successive GPS
// fixes. The first fix seeds the state and passes through unchanged. Not
// safe for concurrent use; the tracker keeps one instance per courier.
type CoordinateSmoother struct {
	alpha  float64
	seeded bool
	lat    float64
	lon    float64
}

// NewCoordinateSmoother returns a smoother with the given factor. Values
// outside (0, 1] fall back to DefaultSmoothingAlpha.
func NewCoordinateSmoother(alpha float64) *CoordinateSmoother {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultSmoothingAlpha
	}
	return &CoordinateSmoother{alpha: alpha}
}

// Smooth folds a raw coordinate into the filter state and returns the
// smoothed coordinate.
func (s *CoordinateSmoother) Smooth(lat, lon float64) (float64, float64) {
	if !s.seeded {
		s.lat, s.lon = lat, lon
		s.seeded = true
		return lat, lon
	}
	s.lat += s.alpha * (lat - s.lat)
	s.lon += s.alpha * (lon - s.lon)
	return s.lat, s.lon
}
