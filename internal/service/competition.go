package service

import (
	"fmt"
	"time"

	"card-game-bot/internal/model"
)

// WindowLayout is the format of configured competition times, read in the
// configured timezone.
const WindowLayout = "2006-01-02 15:04:05"

// Window is the inclusive competition period.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow parses start and end in loc. Two empty strings give the
// zero window: no competition is scheduled.
func ParseWindow(start, end string, loc *time.Location) (Window, error) {
	if start == "" && end == "" {
		return Window{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	s, err := time.ParseInLocation(WindowLayout, start, loc)
	if err != nil {
		return Window{}, fmt.Errorf("failed to parse competition start: %w", err)
	}
	e, err := time.ParseInLocation(WindowLayout, end, loc)
	if err != nil {
		return Window{}, fmt.Errorf("failed to parse competition end: %w", err)
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("competition ends (%s) before it starts (%s)", end, start)
	}
	return Window{Start: s, End: e}, nil
}

// Scheduled reports whether a competition is configured.
func (w Window) Scheduled() bool {
	return !w.Start.IsZero()
}

// Contains reports whether t falls inside the window, both ends included.
func (w Window) Contains(t time.Time) bool {
	return w.Scheduled() && !t.Before(w.Start) && !t.After(w.End)
}

// State returns the competition state at t.
func (w Window) State(t time.Time) string {
	switch {
	case !w.Scheduled() || t.Before(w.Start):
		return model.CompetitionNotStarted
	case !t.After(w.End):
		return model.CompetitionUnderway
	default:
		return model.CompetitionEnded
	}
}

// CompetitionStatus is what /competition reports.
type CompetitionStatus struct {
	State     string
	Window    Window
	Standings []*model.CountEntry
}
