package weft

// tree.go contains the structural layer of the interval tree: node type,
// descent by accumulated span length, in-order iteration, splitting,
// rotation, balancing, and the boundary adjustments applied when text is
// inserted or deleted underneath the tree.
//
// The intervals under one root always partition the covered object
// exactly: no gaps, no overlaps. The tree never merges adjacent intervals
// on its own; merging-by-equality is a caller concern (boundary scans
// compare property lists themselves).

// defaultBalanceThreshold is the percentage of the total span by which
// the root's left and right subtree weights may differ before an
// opportunistic rebalance is triggered.
const defaultBalanceThreshold = 20

// Interval is one node of the property overlay tree. It owns a property
// list and a span length, and caches the total length of its subtree.
// The position field is an absolute-start cache maintained by descent
// and iteration; it is only valid on nodes those operations have touched.
type Interval struct {
	parent, left, right *Interval

	length      int // span of this node alone
	totalLength int // length plus both subtrees' totals
	position    int // cached absolute start (1-based)

	props PropertyList
}

// Length returns the number of characters the interval spans.
func (i *Interval) Length() int {
	return i.length
}

// Position returns the interval's cached absolute start position.
func (i *Interval) Position() int {
	return i.position
}

// Properties returns the interval's property list. Callers must not
// mutate the returned list.
func (i *Interval) Properties() PropertyList {
	return i.props
}

// subtreeTotal returns the cached total length of a possibly nil subtree.
func subtreeTotal(i *Interval) int {
	if i == nil {
		return 0
	}
	return i.totalLength
}

// recomputeTotal refreshes a node's cached subtree length from its own
// length and its children's caches.
func (i *Interval) recomputeTotal() {
	i.totalLength = i.length + subtreeTotal(i.left) + subtreeTotal(i.right)
}

// newRootInterval creates a tree consisting of a single interval spanning
// length characters starting at position 1.
func newRootInterval(length int) *Interval {
	return &Interval{length: length, totalLength: length, position: 1}
}

// findInterval descends from root to the interval covering the character
// at pos. A position at or past the end of the object is clamped to the
// last interval, so queries at end-of-object stay well-defined. Returns
// nil only for an empty tree. The found node's position cache is set.
func findInterval(root *Interval, pos int) *Interval {
	if root == nil || root.totalLength == 0 {
		return nil
	}
	if pos > root.totalLength {
		pos = root.totalLength
	}
	if pos < 1 {
		pos = 1
	}
	rel := pos - 1
	i := root
	for {
		lt := subtreeTotal(i.left)
		if rel < lt {
			i = i.left
			continue
		}
		rel -= lt
		if rel < i.length {
			i.position = pos - rel
			return i
		}
		rel -= i.length
		i = i.right
	}
}

// nextInterval returns the interval immediately after i, or nil at the
// end of the object. The successor's position cache is set from i's.
func nextInterval(i *Interval) *Interval {
	start := i.position + i.length
	if i.right != nil {
		j := i.right
		for j.left != nil {
			j = j.left
		}
		j.position = start
		return j
	}
	j := i
	for j.parent != nil {
		if j.parent.left == j {
			j.parent.position = start
			return j.parent
		}
		j = j.parent
	}
	return nil
}

// previousInterval returns the interval immediately before i, or nil at
// the start of the object. The predecessor's position cache is set.
func previousInterval(i *Interval) *Interval {
	if i.left != nil {
		j := i.left
		for j.right != nil {
			j = j.right
		}
		j.position = i.position - j.length
		return j
	}
	j := i
	for j.parent != nil {
		if j.parent.right == j {
			j.parent.position = i.position - j.parent.length
			return j.parent
		}
		j = j.parent
	}
	return nil
}

// splitIntervalRight partitions i at relative offset (0 < offset <
// i.length): i keeps the first offset characters and a new interval
// holding the remainder becomes i's right child. The new interval
// initially copies i's property list. Subtree totals are preserved.
func splitIntervalRight(i *Interval, offset int) *Interval {
	n := &Interval{
		parent:   i,
		length:   i.length - offset,
		position: i.position + offset,
		props:    i.props.Copy(),
	}
	i.length = offset
	if i.right != nil {
		n.right = i.right
		n.right.parent = n
	}
	i.right = n
	n.recomputeTotal()
	return n
}

// splitIntervalLeft partitions i at relative offset: a new interval
// holding the first offset characters becomes i's left child and i keeps
// the remainder. The new interval initially copies i's property list.
func splitIntervalLeft(i *Interval, offset int) *Interval {
	n := &Interval{
		parent:   i,
		length:   offset,
		position: i.position,
		props:    i.props.Copy(),
	}
	i.length -= offset
	i.position += offset
	if i.left != nil {
		n.left = i.left
		n.left.parent = n
	}
	i.left = n
	n.recomputeTotal()
	return n
}

// rotateRight lifts i's left child above i and returns it as the new
// subtree root. Parent linkage and subtree totals are repaired.
func rotateRight(i *Interval) *Interval {
	b := i.left
	b.parent = i.parent
	if b.parent != nil {
		if b.parent.left == i {
			b.parent.left = b
		} else {
			b.parent.right = b
		}
	}
	i.left = b.right
	if i.left != nil {
		i.left.parent = i
	}
	b.right = i
	i.parent = b
	i.recomputeTotal()
	b.recomputeTotal()
	return b
}

// rotateLeft is the mirror of rotateRight.
func rotateLeft(i *Interval) *Interval {
	b := i.right
	b.parent = i.parent
	if b.parent != nil {
		if b.parent.left == i {
			b.parent.left = b
		} else {
			b.parent.right = b
		}
	}
	i.right = b.left
	if i.right != nil {
		i.right.parent = i
	}
	b.left = i
	i.parent = b
	i.recomputeTotal()
	b.recomputeTotal()
	return b
}

// balanceAnInterval rotates i while doing so strictly reduces the weight
// difference between its subtrees, then returns the subtree's new root.
func balanceAnInterval(i *Interval) *Interval {
	for {
		oldDiff := subtreeTotal(i.left) - subtreeTotal(i.right)
		if oldDiff > 0 {
			// Weight difference at the would-be root after a right rotation.
			newDiff := i.totalLength - i.left.totalLength +
				subtreeTotal(i.left.right) - subtreeTotal(i.left.left)
			if abs(newDiff) >= oldDiff {
				break
			}
			i = rotateRight(i)
			balanceAnInterval(i.right)
		} else if oldDiff < 0 {
			newDiff := i.totalLength - i.right.totalLength +
				subtreeTotal(i.right.left) - subtreeTotal(i.right.right)
			if abs(newDiff) >= -oldDiff {
				break
			}
			i = rotateLeft(i)
			balanceAnInterval(i.left)
		} else {
			break
		}
	}
	return i
}

// balanceIntervalTree balances every subtree bottom-up and returns the
// new root.
func balanceIntervalTree(i *Interval) *Interval {
	if i == nil {
		return nil
	}
	if i.left != nil {
		i.left = balanceIntervalTree(i.left)
		i.left.parent = i
	}
	if i.right != nil {
		i.right = balanceIntervalTree(i.right)
		i.right.parent = i
	}
	return balanceAnInterval(i)
}

// needsRebalance reports whether the root's subtree weights differ by
// more than threshold percent of the total span. Rebalancing is
// opportunistic: strict balance is traded for amortized cost.
func needsRebalance(root *Interval, threshold int) bool {
	if root == nil || root.totalLength == 0 {
		return false
	}
	d := subtreeTotal(root.left) - subtreeTotal(root.right)
	if d < 0 {
		d = -d
	}
	return d*100 > threshold*root.totalLength
}

// deleteInterval removes a zero-length node from the tree rooted at
// root, promoting its children, and returns the (possibly new) root.
// The caller must already have zeroed i.length and subtracted the
// removed span from every ancestor's total.
func deleteInterval(root, i *Interval) *Interval {
	merged := mergeChildren(i)
	parent := i.parent
	if parent == nil {
		if merged != nil {
			merged.parent = nil
		}
		return merged
	}
	if parent.left == i {
		parent.left = merged
	} else {
		parent.right = merged
	}
	if merged != nil {
		merged.parent = parent
	}
	return root
}

// mergeChildren combines a deleted node's two subtrees into one,
// attaching the left subtree at the leftmost node of the right subtree.
func mergeChildren(i *Interval) *Interval {
	if i.left == nil {
		return i.right
	}
	if i.right == nil {
		return i.left
	}
	migrate := i.left
	amount := migrate.totalLength
	j := i.right
	j.totalLength += amount
	for j.left != nil {
		j = j.left
		j.totalLength += amount
	}
	j.left = migrate
	migrate.parent = j
	return i.right
}

// adjustForInsert grows the partition to cover length new characters
// inserted at pos, without changing how the object is partitioned:
// inserted text joins the span ending at the insertion point, and text
// inserted at the very start joins the first span. Returns the root.
func adjustForInsert(root *Interval, pos, length int) *Interval {
	if root == nil || length == 0 {
		return root
	}
	at := pos - 1
	if at < 1 {
		at = 1
	}
	i := findInterval(root, at)
	i.length += length
	for j := i; j != nil; j = j.parent {
		j.totalLength += length
	}
	return root
}

// adjustForDelete shrinks the partition after the amount characters
// beginning at start were deleted. Intervals emptied by the deletion are
// removed with tree surgery. Returns the (possibly nil) new root.
func adjustForDelete(root *Interval, start, amount int) *Interval {
	for amount > 0 && root != nil && root.totalLength > 0 {
		i := findInterval(root, start)
		offset := start - i.position
		avail := i.length - offset
		if avail > amount {
			avail = amount
		}
		i.length -= avail
		i.totalLength -= avail
		for j := i.parent; j != nil; j = j.parent {
			j.totalLength -= avail
		}
		amount -= avail
		if i.length == 0 {
			root = deleteInterval(root, i)
		}
	}
	if root != nil && root.totalLength == 0 {
		return nil
	}
	return root
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
