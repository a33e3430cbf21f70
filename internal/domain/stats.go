package domain

import (
	"math"
	"sort"
	"time"
)

// DateLayout is the day bucket format used by analytics.
const DateLayout = "2006-01-02"

// defaultBestHour is reported when there is no completed work to rank.
const defaultBestHour = 9

// SessionStats summarises a user's session history.
type SessionStats struct {
	TotalSessions       int     `json:"totalSessions"`
	TotalHours          float64 `json:"totalHours"`
	CompletionRate      float64 `json:"completionRate"`
	DistractionFreeRate float64 `json:"distractionFreeRate"`
	LongestStreak       int     `json:"longestStreak"`
	CurrentStreak       int     `json:"currentStreak"`
	BestDay             string  `json:"bestDay"`
	BestHour            int     `json:"bestHour"`
}

// ComputeStats derives analytics from persisted sessions. Days are UTC
// calendar days; now anchors the current streak.
func ComputeStats(sessions []*Session, now time.Time) SessionStats {
	stats := SessionStats{
		TotalSessions:       len(sessions),
		DistractionFreeRate: 100,
		BestHour:            defaultBestHour,
	}
	if len(sessions) == 0 {
		return stats
	}

	var completed, work, clean, minutes int
	perDay := make(map[string]int)
	perHour := make(map[int]int)

	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		completed++
		if !s.IsWork() {
			continue
		}
		work++
		minutes += s.Duration
		if s.Distractions == 0 {
			clean++
		}
		start := s.StartTime.UTC()
		perDay[start.Format(DateLayout)]++
		perHour[start.Hour()]++
	}

	stats.TotalHours = round(float64(minutes)/60, 2)
	stats.CompletionRate = round(float64(completed)/float64(len(sessions))*100, 1)
	if work > 0 {
		stats.DistractionFreeRate = round(float64(clean)/float64(work)*100, 1)
	}

	days := make([]string, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Strings(days)

	stats.LongestStreak = longestStreak(days)
	stats.CurrentStreak = currentStreak(perDay, now)

	best := 0
	for _, d := range days {
		if perDay[d] > best {
			best = perDay[d]
			stats.BestDay = d
		}
	}

	best = 0
	for h := 0; h < 24; h++ {
		if perHour[h] > best {
			best = perHour[h]
			stats.BestHour = h
		}
	}

	return stats
}

// Heatmap counts completed sessions per start date within year.
func Heatmap(sessions []*Session, year int) map[string]int {
	out := make(map[string]int)
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		start := s.StartTime.UTC()
		if start.Year() != year {
			continue
		}
		out[start.Format(DateLayout)]++
	}
	return out
}

// longestStreak expects sorted, distinct dates.
func longestStreak(days []string) int {
	longest, run := 0, 0
	var prev time.Time
	for i, d := range days {
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			continue
		}
		if i > 0 && t.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = t
	}
	return longest
}

// currentStreak counts back from today. A day without sessions yet does
// not break a streak that ended yesterday.
func currentStreak(perDay map[string]int, now time.Time) int {
	day := now.UTC()
	if perDay[day.Format(DateLayout)] == 0 {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for perDay[day.Format(DateLayout)] > 0 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
