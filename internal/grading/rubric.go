package grading

import "fmt"

type Rubric struct {
	Criteria []Criterion `json:"criteria"`
	Max      float64     `json:"max_points"`
}

type Criterion struct {
	Key       string  `json:"key"`
	Desc      string  `json:"desc"`
	MaxPoints float64 `json:"max_points"`
}

// ScoreRubric clamps awarded points per criterion to [0, max] and sums
// them, capping the total at the rubric maximum. Criteria absent from
// the awarded map score zero; keys outside the rubric are ignored.
func ScoreRubric(r Rubric, awarded map[string]float64) (map[string]float64, float64, []string) {
	total := 0.0
	clamped := make(map[string]float64, len(r.Criteria))
	notes := make([]string, 0, len(r.Criteria))
	for _, c := range r.Criteria {
		v := awarded[c.Key]
		if v < 0 {
			v = 0
		}
		if v > c.MaxPoints {
			v = c.MaxPoints
		}
		clamped[c.Key] = v
		total += v
		notes = append(notes, fmt.Sprintf("%s:%.2f", c.Key, v))
	}
	if r.Max > 0 && total > r.Max {
		total = r.Max
	}
	return clamped, total, notes
}

// MaxPoints is the rubric ceiling: the explicit Max when set, otherwise
// the sum of per-criterion maxima.
func (r Rubric) MaxPoints() float64 {
	if r.Max > 0 {
		return r.Max
	}
	sum := 0.0
	for _, c := range r.Criteria {
		sum += c.MaxPoints
	}
	return sum
}
