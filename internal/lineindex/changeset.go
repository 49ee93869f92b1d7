package lineindex

import "slices"

// ChangeSet records which lines an edit inserted, removed or changed in place.
// The zero value is an empty set.
type ChangeSet struct {
	inserted map[LineID]struct{}
	removed  map[LineID]struct{}
	edited   map[LineID]struct{}
}

func add(m *map[LineID]struct{}, id LineID) {
	if *m == nil {
		*m = make(map[LineID]struct{})
	}
	(*m)[id] = struct{}{}
}

// MarkInserted records a newly created line.
func (c *ChangeSet) MarkInserted(id LineID) {
	add(&c.inserted, id)
}

// MarkRemoved records a destroyed line. A removed line is no longer reported
// as inserted or edited.
func (c *ChangeSet) MarkRemoved(id LineID) {
	delete(c.inserted, id)
	delete(c.edited, id)
	add(&c.removed, id)
}

// MarkEdited records a line whose content or rendering changed. Removed lines
// are ignored.
func (c *ChangeSet) MarkEdited(id LineID) {
	if _, gone := c.removed[id]; gone {
		return
	}
	add(&c.edited, id)
}

// Union folds other into c.
func (c *ChangeSet) Union(other ChangeSet) {
	for id := range other.removed {
		c.MarkRemoved(id)
	}
	for id := range other.inserted {
		if _, gone := c.removed[id]; !gone {
			add(&c.inserted, id)
		}
	}
	for id := range other.edited {
		c.MarkEdited(id)
	}
}

// IsEmpty reports whether the set holds no line.
func (c ChangeSet) IsEmpty() bool {
	return len(c.inserted) == 0 && len(c.removed) == 0 && len(c.edited) == 0
}

// Len returns the number of distinct lines in the set.
func (c ChangeSet) Len() int { return len(c.IDs()) }

// Contains reports whether id is in any of the three groups.
func (c ChangeSet) Contains(id LineID) bool {
	_, a := c.inserted[id]
	_, b := c.removed[id]
	_, e := c.edited[id]
	return a || b || e
}

// Inserted returns the inserted line IDs in ascending order.
func (c ChangeSet) Inserted() []LineID { return sortedIDs(c.inserted) }

// Removed returns the removed line IDs in ascending order.
func (c ChangeSet) Removed() []LineID { return sortedIDs(c.removed) }

// Edited returns the edited line IDs in ascending order.
func (c ChangeSet) Edited() []LineID { return sortedIDs(c.edited) }

// IDs returns every line the set mentions, ascending. These are the lines a
// renderer must invalidate.
func (c ChangeSet) IDs() []LineID {
	all := make(map[LineID]struct{}, len(c.inserted)+len(c.removed)+len(c.edited))
	for _, m := range []map[LineID]struct{}{c.inserted, c.removed, c.edited} {
		for id := range m {
			all[id] = struct{}{}
		}
	}
	return sortedIDs(all)
}

func sortedIDs(m map[LineID]struct{}) []LineID {
	ids := make([]LineID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
