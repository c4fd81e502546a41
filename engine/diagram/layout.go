package diagram

import (
	"sort"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/domain"
)

// Layout spacing in canvas pixels.
const (
	originX   = 50
	originY   = 80
	columnGap = 220
	rowGap    = 140
)

// NamedLayout pins literal positions for a known demonstration circuit. It
// applies only when the selection is exactly its component set.
type NamedLayout struct {
	Name      string
	Positions map[string]domain.Position
}

func (l NamedLayout) matches(ids []string) bool {
	if len(ids) != len(l.Positions) {
		return false
	}
	for _, id := range ids {
		if _, ok := l.Positions[id]; !ok {
			return false
		}
	}
	return true
}

// DefaultLayouts returns the hand-tuned demonstration layouts.
func DefaultLayouts() []NamedLayout {
	return []NamedLayout{
		{
			Name: "fan-regulator-switch",
			Positions: map[string]domain.Position{
				catalog.PowerSupply:       {X: 50, Y: 200},
				catalog.MCB:               {X: 280, Y: 200},
				catalog.DistributionBoard: {X: 510, Y: 200},
				catalog.Switch:            {X: 760, Y: 60},
				catalog.Regulator:         {X: 990, Y: 60},
				catalog.Fan:               {X: 1000, Y: 300},
			},
		},
		{
			Name: "tube-switch",
			Positions: map[string]domain.Position{
				catalog.PowerSupply:       {X: 50, Y: 200},
				catalog.MCB:               {X: 280, Y: 200},
				catalog.DistributionBoard: {X: 510, Y: 200},
				catalog.Switch:            {X: 760, Y: 80},
				catalog.TubeLight:         {X: 980, Y: 240},
			},
		},
	}
}

// categoryColumn is the fallback column for components not reachable from
// the supply.
var categoryColumn = map[catalog.Category]int{
	catalog.CategoryPower:   0,
	catalog.CategoryControl: 1,
	catalog.CategoryLoad:    2,
	catalog.CategoryBackup:  0,
}

// layerColumns assigns each id a column: its longest-path depth from the
// supply along the reference connections. Ids the supply cannot reach (or
// that sit on a cycle) fall back to their category column.
func layerColumns(cat *catalog.Catalog, ids []string, conns []domain.CorrectConnection) map[string]int {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	out := make(map[string][]string)
	indeg := make(map[string]int)
	for _, c := range conns {
		if !selected[c.SourceComponent] || !selected[c.TargetComponent] {
			continue
		}
		out[c.SourceComponent] = append(out[c.SourceComponent], c.TargetComponent)
		indeg[c.TargetComponent]++
	}

	// Kahn's algorithm; depth only propagates from nodes already reached
	// from the supply.
	depth := make(map[string]int)
	if selected[catalog.PowerSupply] {
		depth[catalog.PowerSupply] = 0
	}
	var queue []string
	for _, id := range ids {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range out[u] {
			if d, ok := depth[u]; ok {
				if cur, seen := depth[v]; !seen || d+1 > cur {
					depth[v] = d + 1
				}
			}
			indeg[v]--
			if indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	cols := make(map[string]int, len(ids))
	for _, id := range ids {
		if d, ok := depth[id]; ok && indeg[id] <= 0 {
			cols[id] = d
			continue
		}
		cols[id] = categoryColumn[cat.Category(id)]
	}
	return cols
}

// layeredPositions stacks ids vertically inside their column, ordered by
// catalog position.
func layeredPositions(cat *catalog.Catalog, ids []string, conns []domain.CorrectConnection) map[string]domain.Position {
	cols := layerColumns(cat, ids, conns)

	byCol := make(map[int][]string)
	for _, id := range ids {
		byCol[cols[id]] = append(byCol[cols[id]], id)
	}

	pos := make(map[string]domain.Position, len(ids))
	for col, members := range byCol {
		sort.SliceStable(members, func(i, j int) bool {
			return cat.Index(members[i]) < cat.Index(members[j])
		})
		for row, id := range members {
			pos[id] = domain.Position{
				X: float64(originX + col*columnGap),
				Y: float64(originY + row*rowGap),
			}
		}
	}
	return pos
}
