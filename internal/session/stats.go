package session

// Statistics summarizes a session. Best is the arrow closest to the
// center, Worst the farthest; both are nil for an empty session.
type Statistics struct {
	TotalArrows     int     `json:"total_arrows"`
	TotalScore      int     `json:"total_score"`
	AverageScore    float64 `json:"average_score"`
	AverageDistance float64 `json:"average_distance"`
	Best            *Arrow  `json:"best_arrow"`
	Worst           *Arrow  `json:"worst_arrow"`
}

// Statistics computes summary metrics over the current arrows. It is
// computed on demand, not maintained incrementally.
func (s *Session) Statistics() Statistics {
	if len(s.arrows) == 0 {
		return Statistics{}
	}

	var totalScore int
	var totalDistance float64
	best, worst := 0, 0

	for i, a := range s.arrows {
		totalScore += a.Score
		totalDistance += a.DistanceCM
		if a.DistanceCM < s.arrows[best].DistanceCM {
			best = i
		}
		if a.DistanceCM > s.arrows[worst].DistanceCM {
			worst = i
		}
	}

	n := float64(len(s.arrows))
	bestArrow := s.arrows[best]
	worstArrow := s.arrows[worst]

	return Statistics{
		TotalArrows:     len(s.arrows),
		TotalScore:      totalScore,
		AverageScore:    float64(totalScore) / n,
		AverageDistance: totalDistance / n,
		Best:            &bestArrow,
		Worst:           &worstArrow,
	}
}
