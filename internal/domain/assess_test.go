package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssess(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	t.Run("benign day scores great", func(t *testing.T) {
		a := Assess(goodDayInput())

		assert.Equal(t, StatusGreat, a.Status)
		assert.Equal(t, a.Provisional, a.Status)
		assert.Empty(t, a.Tags)
		assert.Empty(t, a.Flags)
		assert.NotEmpty(t, a.Positives)

		assert.Equal(t, 10, a.Thermal.Duration)
		assert.Equal(t, 6, a.BaseScore)
		assert.Equal(t, ConfidenceHigh, a.Agreement.Confidence)
		for _, v := range a.Verdicts {
			assert.Equal(t, VerdictGo, v.Verdict, v.Variant)
		}

		require.Contains(t, a.Resolved, FamilyICON)
		assert.Equal(t, "icon_d2", a.Resolved[FamilyICON].Variant)
		assert.Equal(t, fake.Now(), a.GeneratedAt)
	})

	t.Run("every source down lands on no-data", func(t *testing.T) {
		in := AssessmentInput{
			Site:       testSite,
			TargetDate: "2026-09-05",
			Families: map[string][]VariantOutcome{
				FamilyICON:  {{Variant: "icon_d2", Err: errors.New("502")}},
				FamilyECMWF: {{Variant: "ecmwf_ifs025", Err: errors.New("timeout")}},
				FamilyGFS:   {{Variant: "gfs_seamless", Err: errors.New("502")}},
			},
		}
		a := Assess(in)

		assert.Equal(t, StatusNoData, a.Status)
		require.NotEmpty(t, a.Tags)
		assert.Equal(t, "NO_DATA", a.Tags[len(a.Tags)-1].Rule)
		assert.Equal(t, ConfidenceUnknown, a.Agreement.Confidence)
		assert.Empty(t, a.Verdicts)
		for _, family := range []string{FamilyICON, FamilyECMWF, FamilyGFS} {
			assert.False(t, a.Resolved[family].Available, family)
		}
	})

	t.Run("identical input yields identical output", func(t *testing.T) {
		first := Assess(goodDayInput())
		second := Assess(goodDayInput())
		assert.Empty(t, cmp.Diff(first, second))
	})
}

func TestRank(t *testing.T) {
	mk := func(id string, s Status) Assessment {
		return Assessment{Site: Site{ID: id}, Status: s}
	}
	assessments := []Assessment{
		mk("wallberg", StatusMaybe),
		mk("koessen", StatusNoData),
		mk("bassano", StatusReject),
		mk("lenggries", StatusGreat),
		mk("greifenburg", StatusMaybe),
		mk("innsbruck", StatusGood),
	}
	Rank(assessments)

	got := make([]string, len(assessments))
	for i, a := range assessments {
		got[i] = a.Site.ID
	}
	assert.Equal(t, []string{"lenggries", "innsbruck", "greifenburg", "wallberg", "bassano", "koessen"}, got)
}

func TestNextSaturday(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"midweek", time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC), "2026-09-05"},
		{"friday evening", time.Date(2026, 9, 4, 22, 0, 0, 0, time.UTC), "2026-09-05"},
		{"saturday counts as today", time.Date(2026, 9, 5, 6, 0, 0, 0, time.UTC), "2026-09-05"},
		{"sunday rolls a week", time.Date(2026, 9, 6, 6, 0, 0, 0, time.UTC), "2026-09-12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetClock(clockwork.NewFakeClockAt(tt.now))
			t.Cleanup(func() { SetClock(nil) })
			assert.Equal(t, tt.want, NextSaturday(time.UTC))
		})
	}
}
