package results

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// Slice is one wedge of the constituency pie chart
type Slice struct {
	Label   string  `json:"label"`
	Slug    string  `json:"slug"`
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
}

func voteVector(rs []PartyResult) []float64 {
	v := make([]float64, len(rs))
	for i, r := range rs {
		v[i] = float64(r.Votes)
	}
	return v
}

// withPercent fills Percent for each result and returns the total vote count
func withPercent(rs []PartyResult) int {
	if len(rs) == 0 {
		return 0
	}
	votes := voteVector(rs)
	total, err := stats.Sum(votes)
	if err != nil || total == 0 {
		for i := range rs {
			rs[i].Percent = 0
		}
		return 0
	}
	floats.Scale(100/total, votes)
	for i := range rs {
		rs[i].Percent = votes[i]
	}
	return int(total)
}

// FormatIssues computes every issue's total and each party's share of it, then orders issues by
// total, largest first. The input is not modified.
func FormatIssues(issues []Issue) []Issue {
	out := make([]Issue, len(issues))
	for i, issue := range issues {
		issue.Results = append([]PartyResult(nil), issue.Results...)
		issue.Total = withPercent(issue.Results)
		out[i] = issue
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// PieSlices turns a results payload into chart data, largest party first
func PieSlices(r *Results) []Slice {
	if r == nil {
		return nil
	}
	rs := append([]PartyResult(nil), r.Results...)
	withPercent(rs)
	slices := make([]Slice, len(rs))
	for i, pr := range rs {
		slices[i] = Slice{Label: pr.Party, Slug: pr.Slug, Value: int(pr.Votes), Percent: pr.Percent}
	}
	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].Value > slices[j].Value
	})
	return slices
}

// Round rounds to one decimal place
func Round(v float64) float64 {
	r, err := stats.Round(v, 1)
	if err != nil {
		return v
	}
	return r
}

// RoundToInt rounds to the nearest integer
func RoundToInt(v float64) int {
	return int(math.Round(v))
}

// Thousands abbreviates counts of 10 000 and above as e.g. "12.3k"
func Thousands(v int) string {
	if v < 10000 {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%gk", Round(float64(v)/1000))
}
