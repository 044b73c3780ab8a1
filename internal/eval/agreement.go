package eval

import (
	"fmt"
	"sort"

	"github.com/biokg/kgbench/internal/artifacts"
)

// Rater is one score file, keyed for joining against other raters.
type Rater struct {
	Name   string
	Scores map[string]Score
}

// LoadRater reads a score file and keys it by item identifier.
func LoadRater(name, path string) (Rater, error) {
	var scores []Score
	if err := artifacts.ReadJSON(path, &scores); err != nil {
		return Rater{}, fmt.Errorf("load scores for %s: %w", name, err)
	}
	keyed := make(map[string]Score, len(scores))
	for _, score := range scores {
		keyed[score.Key()] = score
	}
	return Rater{Name: name, Scores: keyed}, nil
}

// DimensionReport summarizes agreement for one score dimension.
type DimensionReport struct {
	Items           int                `json:"items"`
	Pairwise        map[string]float64 `json:"pairwise"`
	AveragePairwise float64            `json:"average_pairwise"`
	GroupRatio      *float64           `json:"group_ratio,omitempty"`
}

// Report summarizes agreement across all requested dimensions.
type Report struct {
	Raters     []string                   `json:"raters"`
	CommonQA   int                        `json:"common_qa"`
	Dimensions map[string]DimensionReport `json:"dimensions"`
}

// Analyze computes agreement statistics over two or more raters. Items
// are joined on identifier; for each dimension, items missing a rating
// from any rater are excluded from that dimension only. Pairwise
// agreement is symmetric in the rater order.
func Analyze(raters []Rater, dimensions []string) (*Report, error) {
	if len(raters) < 2 {
		return nil, fmt.Errorf("agreement needs at least two raters, got %d", len(raters))
	}

	commonKeys := commonKeys(raters)
	if len(commonKeys) == 0 {
		return nil, fmt.Errorf("no common QA items across raters")
	}

	names := make([]string, 0, len(raters))
	for _, rater := range raters {
		names = append(names, rater.Name)
	}

	report := &Report{
		Raters:     names,
		CommonQA:   len(commonKeys),
		Dimensions: make(map[string]DimensionReport, len(dimensions)),
	}

	for _, dimension := range dimensions {
		columns, items := scoreColumns(raters, commonKeys, dimension)
		if items == 0 {
			continue
		}

		pairwise := make(map[string]float64)
		var sum float64
		var pairs int
		for i := 0; i < len(raters); i++ {
			for j := i + 1; j < len(raters); j++ {
				ratio := PairwiseRatio(columns[i], columns[j])
				pairwise[raters[i].Name+"-"+raters[j].Name] = ratio
				sum += ratio
				pairs++
			}
		}

		dimReport := DimensionReport{
			Items:           items,
			Pairwise:        pairwise,
			AveragePairwise: sum / float64(pairs),
		}
		if len(raters) == 3 {
			ratio := GroupRatio(columns[0], columns[1], columns[2])
			dimReport.GroupRatio = &ratio
		}
		report.Dimensions[dimension] = dimReport
	}

	return report, nil
}

// PairwiseRatio is the exact-match ratio between two aligned score
// columns. Symmetric: PairwiseRatio(a, b) == PairwiseRatio(b, a).
func PairwiseRatio(a, b []int) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}

// GroupRatio is the three-way agreement ratio: a full three-way match
// counts 1, any two matching counts 0.5.
func GroupRatio(a, b, c []int) float64 {
	if len(a) != len(b) || len(b) != len(c) || len(a) == 0 {
		return 0
	}
	var agreements float64
	for i := range a {
		switch {
		case a[i] == b[i] && b[i] == c[i]:
			agreements++
		case a[i] == b[i] || a[i] == c[i] || b[i] == c[i]:
			agreements += 0.5
		}
	}
	return agreements / float64(len(a))
}

// commonKeys returns the sorted intersection of item keys across raters.
func commonKeys(raters []Rater) []string {
	var keys []string
	for key := range raters[0].Scores {
		present := true
		for _, rater := range raters[1:] {
			if _, ok := rater.Scores[key]; !ok {
				present = false
				break
			}
		}
		if present {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// scoreColumns builds aligned score columns for one dimension, keeping
// only items every rater scored.
func scoreColumns(raters []Rater, keys []string, dimension string) ([][]int, int) {
	columns := make([][]int, len(raters))
	items := 0
	for _, key := range keys {
		row := make([]int, len(raters))
		complete := true
		for i, rater := range raters {
			value := rater.Scores[key].Get(dimension)
			if value == nil {
				complete = false
				break
			}
			row[i] = *value
		}
		if !complete {
			continue
		}
		for i := range columns {
			columns[i] = append(columns[i], row[i])
		}
		items++
	}
	return columns, items
}
