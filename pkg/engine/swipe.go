package engine

import (
	"math/rand"

	"github.com/maya/out-and-about/pkg/domain"
	"github.com/maya/out-and-about/pkg/metrics"
)

const defaultHistorySize = 10

// SwipeNavigator picks the next entity to show when the user swipes off the
// focused card. It is an anti-repetition sampler over the nearby pool, not a
// spatial search: selection is uniform over candidates not seen in the last
// historySize picks. One navigator belongs to exactly one open card session
// and must not be shared.
//
// Calls are synchronous and never suspend, so a gesture-release handler can
// call Next repeatedly without ordering concerns.
type SwipeNavigator struct {
	randInt      func(n int) int
	historySize  int
	visited      []string
	lastSelected string
	steps        int
	metrics      *metrics.Metrics
}

// NewSwipeNavigator builds a navigator with the given visited-history bound
// (0 means the default of 10). randInt must return a uniform value in
// [0, n); pass nil for math/rand. Injecting the random source keeps the
// anti-repeat behavior deterministic under test.
func NewSwipeNavigator(historySize int, randInt func(n int) int, m *metrics.Metrics) *SwipeNavigator {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	if randInt == nil {
		randInt = rand.Intn
	}
	return &SwipeNavigator{
		randInt:     randInt,
		historySize: historySize,
		metrics:     m,
	}
}

// Next returns the next entity for a swipe off currentID, or nil when the
// pool holds no candidate (the caller keeps the current focus). Direction is
// accepted for the caller's animation only and never influences selection.
func (n *SwipeNavigator) Next(currentID string, pool []domain.Entity, _ domain.SwipeDirection) domain.Entity {
	candidates := make([]domain.Entity, 0, len(pool))
	for _, item := range pool {
		core := item.EntityCore()
		if core.ID == currentID || !core.HasCoordinates() {
			continue
		}
		candidates = append(candidates, item)
	}
	if len(candidates) == 0 {
		n.metrics.EmptyPoolNoop()
		return nil
	}

	seen := make(map[string]bool, len(n.visited))
	for _, id := range n.visited {
		seen[id] = true
	}

	available := make([]domain.Entity, 0, len(candidates))
	for _, item := range candidates {
		if !seen[item.EntityCore().ID] {
			available = append(available, item)
		}
	}

	var pick domain.Entity
	if len(available) > 0 {
		pick = available[n.randInt(len(available))]
	} else {
		// Pool exhausted: forget the history but never re-show the
		// card the user just left when any alternative exists.
		n.visited = n.visited[:0]
		choices := candidates
		if n.lastSelected != "" {
			trimmed := make([]domain.Entity, 0, len(candidates))
			for _, item := range candidates {
				if item.EntityCore().ID != n.lastSelected {
					trimmed = append(trimmed, item)
				}
			}
			if len(trimmed) > 0 {
				choices = trimmed
			}
		}
		pick = choices[n.randInt(len(choices))]
		n.metrics.PoolExhaustedReset()
	}

	n.visited = append(n.visited, pick.EntityCore().ID)
	if len(n.visited) > n.historySize {
		n.visited = n.visited[1:]
	}
	n.lastSelected = pick.EntityCore().ID
	n.steps++
	n.metrics.SwipeSelection()
	return pick
}

// ResetFocus clears the visited history, step counter and last selection.
// Call it whenever the focused entity changes through anything other than a
// swipe, e.g. an explicit pick from the feed.
func (n *SwipeNavigator) ResetFocus() {
	n.visited = n.visited[:0]
	n.lastSelected = ""
	n.steps = 0
}

// Steps reports how many swipe selections happened since the last reset.
func (n *SwipeNavigator) Steps() int {
	return n.steps
}
