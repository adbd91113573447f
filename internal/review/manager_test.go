package review

import (
	"testing"
	"time"
)

func TestEndOfDay(t *testing.T) {
	loc := time.FixedZone("test", 0)
	day := func(d, h, min int) time.Time {
		return time.Date(2024, 6, d, h, min, 0, 0, loc)
	}

	cases := []struct {
		name   string
		offset time.Duration
		now    time.Time
		want   time.Time
	}{
		{
			name:   "early morning before the offset stays on yesterday's day",
			offset: 4 * time.Hour,
			now:    day(10, 3, 0),
			want:   day(10, 4, 0),
		},
		{
			name:   "late evening rolls to tomorrow's boundary",
			offset: 4 * time.Hour,
			now:    day(10, 23, 0),
			want:   day(11, 4, 0),
		},
		{
			name:   "just past the offset rolls forward",
			offset: 4 * time.Hour,
			now:    day(10, 5, 0),
			want:   day(11, 4, 0),
		},
		{
			name:   "exactly at the boundary does not roll",
			offset: 4 * time.Hour,
			now:    day(10, 4, 0),
			want:   day(10, 4, 0),
		},
		{
			name:   "zero offset falls back to the default",
			offset: 0,
			now:    day(10, 12, 0),
			want:   day(11, 4, 0),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := NewManager(nil, nil, nil, Options{RolloverOffset: c.offset})
			got := m.EndOfDay(c.now)
			if !got.Equal(c.want) {
				t.Errorf("EndOfDay(%v) = %v, want %v", c.now, got, c.want)
			}
		})
	}
}
