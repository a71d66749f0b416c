// Package reconcile computes the difference between two views of the same
// cart or wishlist. The cart layer uses it to report how the server's
// canonical cart differs from the optimistic local one.
package reconcile

import "sort"

// Line is one cart line reduced to what matters for diffing.
type Line struct {
	ProductID string
	StoreID   string
	Quantity  int
}

// QuantityChange is a line present on both sides with different quantities.
type QuantityChange struct {
	ProductID   string
	StoreID     string
	OldQuantity int // local
	NewQuantity int // canonical
}

// LineDiff describes how canonical lines differ from local ones.
type LineDiff struct {
	Added   []Line           // on the server only
	Dropped []Line           // local only
	Changed []QuantityChange // both, different quantity
}

// IsEmpty reports whether both sides agree.
func (d *LineDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Dropped) == 0 && len(d.Changed) == 0
}

// Size is the number of lines that differ.
func (d *LineDiff) Size() int {
	return len(d.Added) + len(d.Dropped) + len(d.Changed)
}

// DiffLines compares local lines with canonical ones. Lines match on
// (ProductID, StoreID); duplicates on one side are summed.
func DiffLines(local, canonical []Line) *LineDiff {
	diff := &LineDiff{}

	localByKey := index(local)
	canonicalByKey := index(canonical)

	for key, c := range canonicalByKey {
		l, exists := localByKey[key]
		switch {
		case !exists:
			diff.Added = append(diff.Added, c)
		case l.Quantity != c.Quantity:
			diff.Changed = append(diff.Changed, QuantityChange{
				ProductID:   c.ProductID,
				StoreID:     c.StoreID,
				OldQuantity: l.Quantity,
				NewQuantity: c.Quantity,
			})
		}
	}

	for key, l := range localByKey {
		if _, exists := canonicalByKey[key]; !exists {
			diff.Dropped = append(diff.Dropped, l)
		}
	}

	sortLines(diff.Added)
	sortLines(diff.Dropped)
	sort.Slice(diff.Changed, func(i, j int) bool {
		return lineKey(diff.Changed[i].ProductID, diff.Changed[i].StoreID) <
			lineKey(diff.Changed[j].ProductID, diff.Changed[j].StoreID)
	})
	return diff
}

func index(lines []Line) map[string]Line {
	out := make(map[string]Line, len(lines))
	for _, l := range lines {
		key := lineKey(l.ProductID, l.StoreID)
		if prev, ok := out[key]; ok {
			l.Quantity += prev.Quantity
		}
		out[key] = l
	}
	return out
}

// lineKey is the composite identity of a line.
func lineKey(productID, storeID string) string {
	return storeID + "\x00" + productID
}

func sortLines(lines []Line) {
	sort.Slice(lines, func(i, j int) bool {
		return lineKey(lines[i].ProductID, lines[i].StoreID) < lineKey(lines[j].ProductID, lines[j].StoreID)
	})
}

// IDDiff describes how one set of ids differs from another.
type IDDiff struct {
	Added   []string // in canonical, not local
	Dropped []string // in local, not canonical
}

// IsEmpty reports whether both sets are equal.
func (d *IDDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Dropped) == 0
}

// DiffIDs computes the set difference between local and canonical ids.
// Order and duplicates are ignored.
func DiffIDs(local, canonical []string) *IDDiff {
	diff := &IDDiff{}

	localSet := make(map[string]bool)
	for _, id := range local {
		localSet[id] = true
	}

	canonicalSet := make(map[string]bool)
	for _, id := range canonical {
		canonicalSet[id] = true
	}

	for id := range canonicalSet {
		if !localSet[id] {
			diff.Added = append(diff.Added, id)
		}
	}
	for id := range localSet {
		if !canonicalSet[id] {
			diff.Dropped = append(diff.Dropped, id)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Dropped)
	return diff
}
