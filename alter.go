package archtype

import "sort"

// alterOp is one requested component add or remove in an Alter call.
type alterOp struct {
	Index ComponentIndex
	Add   bool // false = remove
}

// alterPlan is the output of Archetype.alter (spec.md §4.5): three ordered
// column partitions plus the destination archetype's sorted component set.
type alterPlan struct {
	Adding   []ComponentInfo // new columns to initialize with a default value
	Moving   []ComponentInfo // columns present in both source and destination
	Removing []ComponentInfo // columns to drop
	Dest     []ComponentInfo // destination's sorted component set (removed columns excluded)
}

// computeAlterPlan merge-walks the source archetype's sorted columns with a
// sorted, deduplicated operation list, per spec.md §4.5's algorithm:
//
//   - op is an add, type absent in source -> Adding; included in Dest.
//   - op is an add, type present in source -> Moving if existingAddingIsMove,
//     else Adding (re-initialize); included either way.
//   - op is a remove, type present in source -> Removing; excluded from Dest.
//   - any source column past the end of ops -> Moving.
//
// Consecutive duplicate ops on the same ComponentIndex are skipped.
func computeAlterPlan(source []ComponentInfo, ops []alterOp, existingAddingIsMove bool, resolve func(ComponentIndex) ComponentInfo) alterPlan {
	sortedOps := append([]alterOp(nil), ops...)
	sort.Slice(sortedOps, func(i, j int) bool { return sortedOps[i].Index < sortedOps[j].Index })
	dedup := sortedOps[:0]
	for i, op := range sortedOps {
		if i > 0 && op.Index == dedup[len(dedup)-1].Index {
			continue
		}
		dedup = append(dedup, op)
	}
	sortedOps = dedup

	srcByIndex := make(map[ComponentIndex]ComponentInfo, len(source))
	for _, c := range source {
		srcByIndex[c.Index] = c
	}

	var plan alterPlan
	handled := make(map[ComponentIndex]bool, len(sortedOps))

	for _, op := range sortedOps {
		handled[op.Index] = true
		srcInfo, inSource := srcByIndex[op.Index]
		if op.Add {
			if !inSource {
				info := resolve(op.Index)
				plan.Adding = append(plan.Adding, info)
				plan.Dest = append(plan.Dest, info)
				continue
			}
			if existingAddingIsMove {
				plan.Moving = append(plan.Moving, srcInfo)
			} else {
				plan.Adding = append(plan.Adding, srcInfo)
			}
			plan.Dest = append(plan.Dest, srcInfo)
			continue
		}
		if inSource {
			plan.Removing = append(plan.Removing, srcInfo)
		}
	}

	for _, c := range source {
		if !handled[c.Index] {
			plan.Moving = append(plan.Moving, c)
			plan.Dest = append(plan.Dest, c)
		}
	}

	sort.Slice(plan.Dest, func(i, j int) bool { return plan.Dest[i].Index < plan.Dest[j].Index })
	return plan
}
