package session

import (
	"testing"
	"time"
)

func TestSession_Statistics_Empty(t *testing.T) {
	s := New(3.0, time.Now())

	stats := s.Statistics()
	if stats.TotalArrows != 0 {
		t.Errorf("TotalArrows = %d, want 0", stats.TotalArrows)
	}
	if stats.TotalScore != 0 {
		t.Errorf("TotalScore = %d, want 0", stats.TotalScore)
	}
	if stats.AverageScore != 0 || stats.AverageDistance != 0 {
		t.Error("averages should be zero for an empty session")
	}
	if stats.Best != nil || stats.Worst != nil {
		t.Error("best/worst should be nil for an empty session")
	}
}

func TestSession_Statistics(t *testing.T) {
	now := time.Now()
	s := New(3.0, now)

	s.Accept(Candidate{XCM: 2, YCM: 0, DistanceCM: 2, Score: 10}, now)
	s.Accept(Candidate{XCM: 10, YCM: 0, DistanceCM: 10, Score: 9}, now)
	s.Accept(Candidate{XCM: 0, YCM: 50, DistanceCM: 50, Score: 5}, now)

	stats := s.Statistics()

	if stats.TotalArrows != 3 {
		t.Errorf("TotalArrows = %d, want 3", stats.TotalArrows)
	}
	if stats.TotalScore != 24 {
		t.Errorf("TotalScore = %d, want 24", stats.TotalScore)
	}
	if got, want := stats.AverageScore, 8.0; got != want {
		t.Errorf("AverageScore = %f, want %f", got, want)
	}
	if got, want := stats.AverageDistance, (2.0+10.0+50.0)/3; got != want {
		t.Errorf("AverageDistance = %f, want %f", got, want)
	}

	if stats.Best == nil || stats.Best.ID != 1 {
		t.Errorf("Best = %+v, want arrow 1", stats.Best)
	}
	if stats.Worst == nil || stats.Worst.ID != 3 {
		t.Errorf("Worst = %+v, want arrow 3", stats.Worst)
	}
}

func TestSession_Statistics_Idempotent(t *testing.T) {
	now := time.Now()
	s := New(3.0, now)
	s.Accept(Candidate{XCM: 2, YCM: 0, DistanceCM: 2, Score: 10}, now)

	first := s.Statistics()
	second := s.Statistics()

	if first.TotalArrows != second.TotalArrows ||
		first.TotalScore != second.TotalScore ||
		first.AverageScore != second.AverageScore ||
		first.AverageDistance != second.AverageDistance {
		t.Error("repeated Statistics() calls should return identical results")
	}
	if *first.Best != *second.Best || *first.Worst != *second.Worst {
		t.Error("best/worst should be identical across calls")
	}
}
