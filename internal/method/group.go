package method

import "fmt"

// group is the shared state behind the four group combinators: they all
// advertise the union of their members' gating declarations, and differ
// only in how they fold the members' indicators into one value.
type group struct {
	members []Method
	gating  Gating
}

func newGroup(members []Method) group {
	g := group{members: members}
	for _, m := range members {
		g.gating = g.gating.Merge(m.Gating())
	}
	return g
}

func (g group) Gating() Gating {
	return g.gating
}

// OrGroup reports the maximum indicator across its members: any member
// crossing the threshold is enough to flag an attack.
type OrGroup struct {
	group
}

// NewOrGroup combines members with a max fold.
func NewOrGroup(members ...Method) *OrGroup {
	return &OrGroup{group: newGroup(members)}
}

func (g *OrGroup) SpoofingIndicator(ctx Context) float64 {
	max := 0.0
	for i, m := range g.members {
		v := m.SpoofingIndicator(ctx)
		if i == 0 || v > max {
			max = v
		}
	}
	return max
}

// AndGroup reports the minimum indicator across its members: every
// member must independently cross the threshold.
type AndGroup struct {
	group
}

// NewAndGroup combines members with a min fold.
func NewAndGroup(members ...Method) *AndGroup {
	return &AndGroup{group: newGroup(members)}
}

func (g *AndGroup) SpoofingIndicator(ctx Context) float64 {
	min := 0.0
	for i, m := range g.members {
		v := m.SpoofingIndicator(ctx)
		if i == 0 || v < min {
			min = v
		}
	}
	return min
}

// AverageGroup reports the arithmetic mean of its members' indicators.
type AverageGroup struct {
	group
}

// NewAverageGroup combines members with an unweighted average.
func NewAverageGroup(members ...Method) *AverageGroup {
	return &AverageGroup{group: newGroup(members)}
}

func (g *AverageGroup) SpoofingIndicator(ctx Context) float64 {
	if len(g.members) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range g.members {
		sum += m.SpoofingIndicator(ctx)
	}
	return sum / float64(len(g.members))
}

// WeightedAverageGroup reports a weighted mean of its members'
// indicators. The weights must sum to 1, matching the original's
// assertion.
type WeightedAverageGroup struct {
	group
	weights []float64
}

// NewWeightedAverageGroup combines members with the given per-member
// weights, which must have the same length as members and sum to 1. It
// panics on a malformed weight vector, matching the original's
// constructor-time assertion.
func NewWeightedAverageGroup(members []Method, weights []float64) *WeightedAverageGroup {
	if len(members) != len(weights) {
		panic(fmt.Sprintf("method: %d members but %d weights", len(members), len(weights)))
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum < 0.999999 || sum > 1.000001 {
		panic(fmt.Sprintf("method: weights must sum to 1, got %v", sum))
	}
	return &WeightedAverageGroup{group: newGroup(members), weights: weights}
}

func (g *WeightedAverageGroup) SpoofingIndicator(ctx Context) float64 {
	sum := 0.0
	for i, m := range g.members {
		sum += g.weights[i] * m.SpoofingIndicator(ctx)
	}
	return sum
}
