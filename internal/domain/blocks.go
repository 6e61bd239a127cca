package domain

import "fmt"

// AirBlock is the empty unit that clearing replaces matched cells with.
const AirBlock = "minecraft:air"

// ClassSet is a named set of block identifiers. The same type serves both
// roles: the targets of a mutation and the preserved terrain materials that
// must never be targeted.
type ClassSet struct {
	// Name identifies the set for logs and results (e.g. "structural").
	Name string

	// IDs are namespaced block identifiers in a stable order. Order matters:
	// one replace command is issued per identifier per batch, and tests
	// assert on the dispatched sequence.
	IDs []string
}

// NewClassSet creates a ClassSet with duplicate identifiers removed,
// preserving first-seen order.
func NewClassSet(name string, ids ...string) ClassSet {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return ClassSet{Name: name, IDs: out}
}

// Empty reports whether the set has no identifiers.
func (s ClassSet) Empty() bool { return len(s.IDs) == 0 }

// Len returns the number of identifiers in the set.
func (s ClassSet) Len() int { return len(s.IDs) }

// Contains reports whether the identifier is a member of the set.
func (s ClassSet) Contains(id string) bool {
	for _, v := range s.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Intersect returns the identifiers present in both sets.
func (s ClassSet) Intersect(other ClassSet) []string {
	var hits []string
	for _, id := range s.IDs {
		if other.Contains(id) {
			hits = append(hits, id)
		}
	}
	return hits
}

// CheckDisjoint returns a ConfigError when the target set names any
// preserved identifier. The check runs before any command is built so a
// misconfigured request never reaches the wire.
func CheckDisjoint(targets, preserved ClassSet) error {
	if hits := targets.Intersect(preserved); len(hits) > 0 {
		return &ConfigError{
			Reason: fmt.Sprintf("target set %q names preserved block(s) %v", targets.Name, hits),
		}
	}
	return nil
}

// DefaultClearable is the canonical set of player-placed structural blocks
// targeted by "all minus preserved" clears. Deployment-specific lists
// override it through configuration.
func DefaultClearable() ClassSet {
	return NewClassSet("structural",
		"minecraft:oak_planks",
		"minecraft:cobblestone",
		"minecraft:stone_bricks",
		"minecraft:glass",
		"minecraft:oak_log",
		"minecraft:bricks",
		"minecraft:oak_fence",
		"minecraft:torch",
	)
}

// DefaultPreserved is the canonical set of terrain materials never targeted
// by a clear. Deployment-specific lists override it through configuration.
func DefaultPreserved() ClassSet {
	return NewClassSet("terrain",
		"minecraft:grass_block",
		"minecraft:dirt",
		"minecraft:stone",
		"minecraft:sand",
		"minecraft:gravel",
		"minecraft:water",
		"minecraft:bedrock",
	)
}
