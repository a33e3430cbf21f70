package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		userID   string
		typ      SessionType
		duration int
		wantErr  bool
	}{
		{"work session", "u1", SessionTypeWork, 50, false},
		{"break session", "u1", SessionTypeBreak, 10, false},
		{"missing user", "", SessionTypeWork, 50, true},
		{"unknown type", "u1", SessionType("nap"), 50, true},
		{"zero duration", "u1", SessionTypeWork, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSession("", tt.userID, tt.typ, tt.duration, start)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSession() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("NewSession() error = %v, want ErrValidation", err)
				}
				return
			}
			if s.ID == "" {
				t.Error("NewSession() should generate an ID")
			}
			if !s.IsActive() {
				t.Error("new session should be active")
			}
			if !s.PlannedEnd().Equal(start.Add(time.Duration(tt.duration) * time.Minute)) {
				t.Errorf("PlannedEnd() = %v", s.PlannedEnd())
			}
		})
	}
}

func TestNewSession_KeepsGivenID(t *testing.T) {
	s, err := NewSession("fixed", "u1", SessionTypeWork, 25, time.Now())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if s.ID != "fixed" {
		t.Errorf("ID = %v, want fixed", s.ID)
	}
}

func TestSession_Finish(t *testing.T) {
	s, _ := NewSession("", "u1", SessionTypeWork, 25, time.Now())
	end := time.Now()

	s.Finish(false, end)

	if s.Completed {
		t.Error("Finish(false) should leave session not completed")
	}
	if s.EndTime == nil {
		t.Fatal("Finish() should set EndTime")
	}
	if s.IsActive() {
		t.Error("finished session should not be active")
	}
}

func TestSessionUpdate_Apply(t *testing.T) {
	s, _ := NewSession("", "u1", SessionTypeWork, 25, time.Now())
	done := true
	end := time.Now()

	SessionUpdate{Completed: &done, EndTime: &end}.Apply(s)

	if !s.Completed {
		t.Error("Apply() should set Completed")
	}
	if s.EndTime == nil || !s.EndTime.Equal(end) {
		t.Errorf("EndTime = %v, want %v", s.EndTime, end)
	}
}

func TestSession_PauseExcludedFromElapsed(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s, _ := NewSession("", "u1", SessionTypeWork, 50, start)

	s.Pause(start.Add(time.Minute))
	if !s.IsPaused() {
		t.Fatal("Pause() should mark the session paused")
	}
	// A second pause keeps the first timestamp.
	s.Pause(start.Add(5 * time.Minute))

	if got := s.Elapsed(start.Add(2 * time.Hour)); got != time.Minute {
		t.Errorf("Elapsed() while paused = %v, want 1m", got)
	}

	s.Resume(start.Add(2*time.Hour + time.Minute))
	if s.IsPaused() {
		t.Error("Resume() should clear the pause")
	}
	if s.PausedSeconds != 7200 {
		t.Errorf("PausedSeconds = %d, want 7200", s.PausedSeconds)
	}
	if got := s.Elapsed(start.Add(2*time.Hour + 3*time.Minute)); got != 3*time.Minute {
		t.Errorf("Elapsed() after resume = %v, want 3m", got)
	}
	if want := start.Add(50*time.Minute + 2*time.Hour); !s.PlannedEnd().Equal(want) {
		t.Errorf("PlannedEnd() = %v, want %v", s.PlannedEnd(), want)
	}
}

func TestSession_FinishWhilePaused(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s, _ := NewSession("", "u1", SessionTypeWork, 50, start)
	s.Pause(start.Add(10 * time.Minute))

	s.Finish(false, start.Add(40*time.Minute))

	if s.IsPaused() {
		t.Error("a finished session should not stay paused")
	}
	if s.PausedSeconds != 30*60 {
		t.Errorf("PausedSeconds = %d, want 1800", s.PausedSeconds)
	}

	// Closed sessions ignore later pauses.
	s.Pause(start.Add(time.Hour))
	if s.IsPaused() {
		t.Error("Pause() on a closed session should be a no-op")
	}
}

func TestSessionUpdate_ApplyPauseAndResume(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s, _ := NewSession("", "u1", SessionTypeWork, 25, start)
	paused := start.Add(time.Minute)
	resumed := start.Add(4 * time.Minute)

	SessionUpdate{PausedAt: &paused}.Apply(s)
	if s.PausedAt == nil || !s.PausedAt.Equal(paused) {
		t.Fatalf("PausedAt = %v, want %v", s.PausedAt, paused)
	}

	SessionUpdate{ResumedAt: &resumed}.Apply(s)
	if s.PausedAt != nil || s.PausedSeconds != 180 {
		t.Errorf("after resume PausedAt = %v, PausedSeconds = %d", s.PausedAt, s.PausedSeconds)
	}
}

func TestSessionFilter_Contains(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	f := SessionFilter{From: from, To: to}

	if !f.Contains(from) {
		t.Error("lower bound should be inclusive")
	}
	if !f.Contains(to) {
		t.Error("upper bound should be inclusive")
	}
	if f.Contains(from.Add(-time.Second)) {
		t.Error("before lower bound should be excluded")
	}
	if !(SessionFilter{}).Contains(time.Now()) {
		t.Error("empty filter should match everything")
	}
}
