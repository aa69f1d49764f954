// README: Visiting-order search; insertion construction plus local-search improvement.
package planner

import (
	"context"
	"math"
	"math/rand"
	"time"

	"rutero/internal/geo"
	"rutero/internal/types"
)

// solveBudget is the hard wall-clock cap for one optimization call. It is a
// design constant, not user-configurable per request.
const solveBudget = 30 * time.Second

// solver searches for a feasible low-cost visiting order over matrix nodes
// 1..N. Node 0 is the depot; windows is aligned with matrix indices
// (windows[0] is ignored, the depot is open all day).
type solver struct {
	matrix  geo.Matrix
	windows []types.TimeWindow
	rng     *rand.Rand
}

func newSolver(matrix geo.Matrix, windows []types.TimeWindow, seed int64) *solver {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &solver{matrix: matrix, windows: windows, rng: rand.New(rand.NewSource(seed))}
}

// solve returns a feasible visiting order (matrix node indices, depot
// excluded) and its arc cost in seconds, or ErrNoFeasibleRoute. The search
// runs insertion construction with randomized restarts, improving each
// feasible construction with 2-opt and relocation moves, until the restart
// cap or the deadline is reached. Ties between equal-cost orders fall where
// the search happens to land; no deterministic tie-break is guaranteed.
func (s *solver) solve(ctx context.Context, deadline time.Time) ([]int, int, error) {
	n := len(s.matrix) - 1
	if n <= 0 {
		return nil, 0, ErrNoFeasibleRoute
	}

	// Nearest-first seeding; restarts shuffle.
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i + 1
	}
	byDepotDistance(perm, s.matrix)

	maxRestarts := 50 + 10*n
	var best []int
	bestCost := math.MaxInt

	for attempt := 0; attempt < maxRestarts; attempt++ {
		if attempt > 0 {
			s.rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		}
		if order, ok := s.construct(perm); ok {
			order = s.improve(order, deadline)
			if c, feasible := s.schedule(order); feasible && c < bestCost {
				best = order
				bestCost = c
			}
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			break
		}
	}

	if best == nil {
		return nil, 0, ErrNoFeasibleRoute
	}
	return best, bestCost, nil
}

// construct inserts nodes one by one at the cheapest feasible position.
func (s *solver) construct(perm []int) ([]int, bool) {
	route := make([]int, 0, len(perm))
	for _, node := range perm {
		bestPos, bestDelta := -1, math.MaxInt
		for pos := 0; pos <= len(route); pos++ {
			cand := insertAt(route, node, pos)
			c, feasible := s.schedule(cand)
			if !feasible {
				continue
			}
			base, _ := s.schedule(route)
			if delta := c - base; delta < bestDelta {
				bestDelta = delta
				bestPos = pos
			}
		}
		if bestPos < 0 {
			return nil, false
		}
		route = insertAt(route, node, bestPos)
	}
	return route, true
}

// improve applies 2-opt segment reversals and single-node relocations while
// they reduce cost and keep the schedule feasible.
func (s *solver) improve(order []int, deadline time.Time) []int {
	best := append([]int(nil), order...)
	bestCost, _ := s.schedule(best)
	improved := true
	for improved && time.Now().Before(deadline) {
		improved = false
		// 2-opt: reverse [i,k]
		for i := 0; i < len(best)-1; i++ {
			for k := i + 1; k < len(best); k++ {
				cand := append([]int(nil), best...)
				for a, b := i, k; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				if c, feasible := s.schedule(cand); feasible && c < bestCost {
					best = cand
					bestCost = c
					improved = true
				}
			}
		}
		// or-opt: relocate one node
		for i := 0; i < len(best); i++ {
			for j := 0; j <= len(best); j++ {
				if j == i || j == i+1 {
					continue
				}
				cand := append([]int(nil), best[:i]...)
				cand = append(cand, best[i+1:]...)
				pos := j
				if pos > i {
					pos--
				}
				cand = insertAt(cand, best[i], pos)
				if c, feasible := s.schedule(cand); feasible && c < bestCost {
					best = cand
					bestCost = c
					improved = true
				}
			}
		}
	}
	return best
}

// schedule propagates cumulative travel time from the depot through the
// order. Arrivals before a window wait at the stop; arrivals after the window
// close make the order infeasible. The returned cost is the pure arc sum
// including the return to the depot; waiting time is not part of the
// objective.
func (s *solver) schedule(order []int) (int, bool) {
	t := 0
	cost := 0
	prev := 0
	for _, node := range order {
		arc := s.matrix[prev][node]
		t += arc
		cost += arc
		w := s.windows[node]
		if t < w.Earliest {
			t = w.Earliest
		}
		if t > w.Latest {
			return 0, false
		}
		prev = node
	}
	cost += s.matrix[prev][0]
	return cost, true
}

func insertAt(route []int, node, pos int) []int {
	out := make([]int, 0, len(route)+1)
	out = append(out, route[:pos]...)
	out = append(out, node)
	out = append(out, route[pos:]...)
	return out
}

func byDepotDistance(perm []int, m geo.Matrix) {
	for i := 0; i < len(perm); i++ {
		for j := i + 1; j < len(perm); j++ {
			if m[0][perm[j]] < m[0][perm[i]] {
				perm[i], perm[j] = perm[j], perm[i]
			}
		}
	}
}
