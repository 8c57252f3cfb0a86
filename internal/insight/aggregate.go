// Package insight builds chart series and trait profiles from scored entries.
package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"moodlog/internal/calendar"
	"moodlog/internal/model"
)

type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Day, Week, Month:
		return g, nil
	case "":
		return Day, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// WindowDays is the trailing window applied before bucketing; 0 means unbounded.
func (g Granularity) WindowDays() int {
	switch g {
	case Day:
		return 7
	case Week:
		return 28
	}
	return 0
}

func (g Granularity) finer() (Granularity, bool) {
	switch g {
	case Month:
		return Week, true
	case Week:
		return Day, true
	}
	return "", false
}

type Sample struct {
	CreatedAt time.Time
	Emotions  model.EmotionScores
}

// Point is one bucket; emotion keys are flattened next to date in JSON.
type Point struct {
	Date time.Time `json:"date"`
	model.EmotionScores
}

type Series struct {
	Requested Granularity `json:"requested"`
	Effective Granularity `json:"effective"`
	Points    []Point     `json:"points"`
	NeedsMore int         `json:"needs_more,omitempty"`
	Hint      string      `json:"hint,omitempty"`
}

type Options struct {
	Now      time.Time
	Location *time.Location
}

// Aggregate buckets samples at granularity g. When the result would be a
// single bucket it retries one level finer (month→week→day) as long as the
// finer level still has data, and reports the level actually used.
func Aggregate(samples []Sample, g Granularity, opts Options) Series {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	effective := g
	points := bucket(samples, effective, opts)
	for len(points) == 1 {
		finer, ok := effective.finer()
		if !ok {
			break
		}
		finerPoints := bucket(samples, finer, opts)
		if len(finerPoints) == 0 {
			break
		}
		effective, points = finer, finerPoints
	}

	s := Series{Requested: g, Effective: effective, Points: points}
	switch len(samples) {
	case 0:
		s.NeedsMore = 2
	case 1:
		s.NeedsMore = 1
	}
	if s.NeedsMore > 0 {
		s.Hint = needsMoreHint(s.NeedsMore)
	}
	return s
}

func needsMoreHint(n int) string {
	if n == 1 {
		return "1 more entry needed to see trends"
	}
	return fmt.Sprintf("%d more entries needed to see trends", n)
}

type accumulator struct {
	sum   model.EmotionScores
	count int
}

func bucket(samples []Sample, g Granularity, opts Options) []Point {
	var cutoff time.Time
	if days := g.WindowDays(); days > 0 {
		cutoff = calendar.DateOf(opts.Now.In(opts.Location)).AddDays(-days).In(opts.Location)
	}

	groups := make(map[calendar.Date]*accumulator)
	for _, s := range samples {
		if !cutoff.IsZero() && s.CreatedAt.Before(cutoff) {
			continue
		}
		key := bucketStart(calendar.DateOf(s.CreatedAt.In(opts.Location)), g)
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
		}
		for _, k := range model.EmotionKeys {
			acc.sum.Set(k, acc.sum.Get(k)+s.Emotions.Get(k))
		}
		acc.count++
	}

	keys := make([]calendar.Date, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]Point, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		p := Point{Date: k.In(opts.Location)}
		for _, name := range model.EmotionKeys {
			p.Set(name, round2(acc.sum.Get(name)/float64(acc.count)))
		}
		points = append(points, p)
	}
	return points
}

func bucketStart(d calendar.Date, g Granularity) calendar.Date {
	switch g {
	case Week:
		return d.AddDays(-((int(d.Weekday()) + 6) % 7))
	case Month:
		return calendar.Date{Year: d.Year, Month: d.Month, Day: 1}
	}
	return d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
