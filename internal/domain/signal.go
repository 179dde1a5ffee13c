package domain

// Contribution is one itemized reason contributing points to a SignalScore.
type Contribution struct {
	Label  string
	Points int
}

// SignalScore is a bounded composite confidence score with its contributing
// reasons. It is derived purely from indicator snapshots; stateless output.
type SignalScore struct {
	Total         int // [0,100]
	Contributions []Contribution
}

// Add records a contribution and raises the total, clamped at 100.
// Zero-point contributions are dropped.
func (s *SignalScore) Add(label string, points int) {
	if points <= 0 {
		return
	}
	s.Contributions = append(s.Contributions, Contribution{Label: label, Points: points})
	s.Total += points
	if s.Total > 100 {
		s.Total = 100
	}
}

// Decision is produced once per evaluation cycle. Each loop iteration
// produces a fresh Decision; one is never retried implicitly.
type Decision struct {
	Action     Action
	Reason     string
	Confidence int // SignalScore total backing the decision, 0 when not score-driven
}
