package emitter

import (
	"github.com/duckcypher/duckcypher/ast"
	"github.com/duckcypher/duckcypher/compileerr"
	"github.com/duckcypher/duckcypher/schema"
)

// group is one FROM/JOIN participant: a run of adjacent node patterns
// that share a backing table and therefore a row, with no join between
// them. SQLAlias is the alias of the first member, which is the alias
// every member qualifies its columns under in the emitted SQL.
type group struct {
	SQLAlias string
	Table    string
	Members  []string          // member aliases, in pattern order
	Types    map[string]string // member alias -> entity type
}

// buildGroups greedily folds adjacent node patterns into the same
// group when they map to the same table but a distinct entity type,
// and splits to a new group otherwise. Two groups ending up backed by
// the same table is fine and expected; what it then rejects is a join
// boundary where the entity type is literally identical on both sides,
// the self-join-on-identity case (InvalidJoin).
func buildGroups(reg *schema.Registry, nodes []*ast.NodePattern) ([]*group, map[string]*group, error) {
	var groups []*group
	index := make(map[string]*group, len(nodes))

	for _, n := range nodes {
		table, err := reg.TableOf(n.Type)
		if err != nil {
			return nil, nil, err
		}

		var cur *group
		if len(groups) > 0 {
			last := groups[len(groups)-1]
			if last.Table == table {
				if _, sameType := typeInGroup(last, n.Type); sameType {
					// Same table, same type repeated: not a valid
					// co-location (would collide in the group).
					// Force a new group so the boundary-type check
					// below can surface it as InvalidJoin.
					cur = nil
				} else {
					cur = last
				}
			}
		}
		if cur == nil {
			cur = &group{SQLAlias: n.Alias, Table: table, Types: map[string]string{}}
			groups = append(groups, cur)
		}
		cur.Members = append(cur.Members, n.Alias)
		cur.Types[n.Alias] = n.Type
		index[n.Alias] = cur
	}

	// A join between two groups backed by the same table is normal and
	// intentional (e.g. Company and a further Customer both mapping
	// onto the customer table, joined on shared primary keys). What's
	// disallowed is the degenerate case where
	// the boundary itself is the *same entity type* on both sides —
	// that can only arise from two literally adjacent node patterns of
	// identical type, since buildGroups above would otherwise have
	// folded them into one group.
	for i := 1; i < len(groups); i++ {
		prev, cur := groups[i-1], groups[i]
		prevType := prev.Types[prev.Members[len(prev.Members)-1]]
		curType := cur.Types[cur.Members[0]]
		if prevType == curType {
			return nil, nil, compileerr.New(compileerr.InvalidJoin, cur.SQLAlias,
				"adjacent node patterns are the same entity type and table; a self-join on identity is not supported")
		}
	}

	return groups, index, nil
}

func typeInGroup(g *group, entityType string) (string, bool) {
	for alias, t := range g.Types {
		if t == entityType {
			return alias, true
		}
	}
	return "", false
}
