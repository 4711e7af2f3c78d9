// Package analytics computes score statistics for a graded assignment.
// It is a pure function of its input: no I/O, no shared state, safe to
// call from any number of goroutines.
package analytics

import (
	"fmt"
	"math"
	"sort"
)

// Submission is the minimal view of one student's submission needed for
// score aggregation. Ungraded submissions still count toward the
// completion denominator but carry no score.
type Submission struct {
	ID          string
	StudentName string
	Graded      bool
	Score       float64
	MaxScore    float64
}

// Entry is one row of the ranked per-student list.
type Entry struct {
	StudentName string  `json:"student_name"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
	Percentage  float64 `json:"percentage"`
	LetterGrade string  `json:"letter_grade"`
}

// RangeBucket is one cell of the 10-bucket score histogram.
type RangeBucket struct {
	Label      string `json:"label"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"` // share of graded submissions, whole percent
}

// Report is the full statistics bundle for one assignment.
type Report struct {
	TotalSubmissions int `json:"total_submissions"`
	TotalGraded      int `json:"total_graded"`

	Entries []Entry `json:"entries"` // sorted descending by percentage, stable

	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"` // population (divide by N)
	Q1      float64 `json:"q1"`
	Q3      float64 `json:"q3"`

	Outliers          []Entry        `json:"outliers"` // Tukey fences, strict
	GradeDistribution map[string]int `json:"grade_distribution"`
	Ranges            []RangeBucket  `json:"ranges"`
}

// ValidationError reports a graded submission whose max score makes the
// whole batch ungradeable. The computation is atomic: no statistics are
// produced for the remaining records.
type ValidationError struct {
	SubmissionID string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("submission %s: max score must be positive", e.SubmissionID)
}

// Compute aggregates graded submissions into a Report.
//
// A nil Report with nil error means "no data": zero graded submissions.
// Callers must branch on that before rendering; the engine never returns
// a zero-filled report for an empty set.
func Compute(subs []Submission) (*Report, error) {
	total := len(subs)

	graded := make([]Submission, 0, total)
	for _, s := range subs {
		if !s.Graded {
			continue
		}
		if s.MaxScore <= 0 {
			return nil, &ValidationError{SubmissionID: s.ID}
		}
		graded = append(graded, s)
	}
	if len(graded) == 0 {
		return nil, nil
	}

	entries := make([]Entry, len(graded))
	for i, s := range graded {
		pct := round1(s.Score / s.MaxScore * 100)
		entries[i] = Entry{
			StudentName: s.StudentName,
			Score:       s.Score,
			MaxScore:    s.MaxScore,
			Percentage:  pct,
			LetterGrade: letterGrade(pct),
		}
	}
	// Ties keep encounter order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Percentage > entries[j].Percentage
	})

	pcts := make([]float64, len(entries))
	for i, e := range entries {
		pcts[i] = e.Percentage
	}
	asc := append([]float64(nil), pcts...)
	sort.Float64s(asc)

	n := len(asc)
	mean := 0.0
	for _, v := range asc {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range asc {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)

	q1 := percentile(asc, 25)
	q3 := percentile(asc, 75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	outliers := make([]Entry, 0)
	for _, e := range entries {
		if e.Percentage < lo || e.Percentage > hi {
			outliers = append(outliers, e)
		}
	}

	dist := map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0}
	for _, e := range entries {
		dist[e.LetterGrade]++
	}

	return &Report{
		TotalSubmissions:  total,
		TotalGraded:       n,
		Entries:           entries,
		Average:           round1(mean),
		Median:            round1(median(asc)),
		Min:               asc[0],
		Max:               asc[n-1],
		StdDev:            round1(math.Sqrt(variance)),
		Q1:                round1(q1),
		Q3:                round1(q3),
		Outliers:          outliers,
		GradeDistribution: dist,
		Ranges:            histogram(pcts),
	}, nil
}

func letterGrade(pct float64) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}

// percentile computes the p-th percentile of ascending sorted values by
// linear interpolation between order statistics: index = p/100*(n-1);
// an integral index selects that order statistic, otherwise the floor
// and ceil neighbors are blended by the fractional part.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	idx := p / 100 * float64(n-1)
	lower := math.Floor(idx)
	frac := idx - lower
	i := int(lower)
	if frac == 0 {
		return sorted[i]
	}
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func histogram(pcts []float64) []RangeBucket {
	buckets := make([]RangeBucket, 10)
	for i := range buckets {
		buckets[i].Label = fmt.Sprintf("%d-%d", i*10, i*10+10)
	}
	for _, p := range pcts {
		i := int(p / 10)
		if i > 9 {
			i = 9 // exactly 100 lands in the last bucket
		}
		if i < 0 {
			i = 0
		}
		buckets[i].Count++
	}
	for i := range buckets {
		buckets[i].Percentage = int(math.Round(float64(buckets[i].Count) / float64(len(pcts)) * 100))
	}
	return buckets
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
