package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestCompetitionCountsProperty checks both boards against a direct replay:
// every counted message scores all-time, and a message inside the window
// scores on the competition board unless its author sent the previous
// counted message.
func TestCompetitionCountsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 60).Draw(t, "messages")
		f := newCountingFixture(testWindow)
		ctx := context.Background()

		wantAll := map[int64]int64{}
		wantComp := map[int64]int64{}
		var prev int64
		for i := 0; i < n; i++ {
			user := rapid.Int64Range(1, 4).Draw(t, "user")
			offset := rapid.IntRange(-30, 90).Draw(t, "minute")
			f.now = testWindow.Start.Add(time.Duration(offset) * time.Minute)

			text := strconv.Itoa(i)
			if rapid.IntRange(0, 5).Draw(t, "chatter") == 0 {
				text = "nice"
			}

			counted, err := f.svc.Record(ctx, user, "", text)
			if err != nil {
				t.Fatalf("record: %v", err)
			}
			if counted != IsCount(text) {
				t.Fatalf("counted=%v for %q", counted, text)
			}
			if !counted {
				continue
			}
			wantAll[user]++
			if testWindow.Contains(f.now) && user != prev {
				wantComp[user]++
			}
			prev = user
		}

		for user, want := range wantAll {
			if got := f.all.counts[user]; got != want {
				t.Fatalf("user %d all-time %d, want %d", user, got, want)
			}
		}
		for user, want := range wantComp {
			if got := f.comp.counts[user]; got != want {
				t.Fatalf("user %d competition %d, want %d", user, got, want)
			}
		}
		if len(f.comp.counts) != len(wantComp) {
			t.Fatalf("competition board has %d users, want %d", len(f.comp.counts), len(wantComp))
		}
	})
}

// TestDibRangeProperty checks that ParseDib accepts exactly the integers in
// [0, MaxDib].
func TestDibRangeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Int64().Draw(t, "value")
		n, err := ParseDib(strconv.FormatInt(v, 10))
		inRange := v >= 0 && v <= 2147483647
		if inRange && (err != nil || n != v) {
			t.Fatalf("ParseDib(%d) = %d, %v", v, n, err)
		}
		if !inRange && err == nil {
			t.Fatalf("ParseDib(%d) accepted", v)
		}
	})
}
