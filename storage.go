package weft

// storage.go contains the gap-based character storage underlying a Buffer.
//
// Characters live in a single rune slice with one contiguous free region
// (the gap) that slides to the edit point. Positions are 1-based character
// indices over the conceptual sequence with the gap removed: the character
// at position p is buf[p-1] when p <= gapStart, else buf[gapEnd+p-1-gapStart].

// defaultInitialGap is the gap size a fresh buffer starts with.
const defaultInitialGap = 20

type gapStorage struct {
	buf      []rune
	gapStart int // index of the first free cell
	gapEnd   int // index just past the last free cell
}

func newGapStorage(initialGap int) gapStorage {
	if initialGap < 1 {
		initialGap = defaultInitialGap
	}
	return gapStorage{
		buf:      make([]rune, initialGap),
		gapStart: 0,
		gapEnd:   initialGap,
	}
}

// chars returns the number of characters stored.
func (s *gapStorage) chars() int {
	return len(s.buf) - (s.gapEnd - s.gapStart)
}

// gapLen returns the current size of the gap.
func (s *gapStorage) gapLen() int {
	return s.gapEnd - s.gapStart
}

// charAt returns the character at 1-based position pos.
// The caller guarantees 1 <= pos <= chars().
func (s *gapStorage) charAt(pos int) rune {
	idx := pos - 1
	if idx < s.gapStart {
		return s.buf[idx]
	}
	return s.buf[idx+s.gapLen()]
}

// moveGap slides the gap so that it begins at 1-based position pos,
// i.e. gapStart == pos-1 afterwards. Cost is proportional to the
// distance moved.
func (s *gapStorage) moveGap(pos int) {
	target := pos - 1
	if target == s.gapStart {
		return
	}
	gap := s.gapLen()
	if target < s.gapStart {
		// Slide the characters between target and the gap rightwards.
		n := s.gapStart - target
		copy(s.buf[s.gapEnd-n:s.gapEnd], s.buf[target:s.gapStart])
		s.gapStart = target
		s.gapEnd = target + gap
	} else {
		// Slide the characters between the gap and target leftwards.
		n := target - s.gapStart
		copy(s.buf[s.gapStart:], s.buf[s.gapEnd:s.gapEnd+n])
		s.gapStart = target
		s.gapEnd = target + gap
	}
}

// ensureGap grows the gap until it can hold at least n characters.
// Growth is geometric. There is no recovery path for a failed
// allocation; the runtime panic ends the process.
func (s *gapStorage) ensureGap(n int) {
	if s.gapLen() >= n {
		return
	}
	newCap := len(s.buf)*2 + n
	newBuf := make([]rune, newCap)
	copy(newBuf, s.buf[:s.gapStart])
	suffix := len(s.buf) - s.gapEnd
	copy(newBuf[newCap-suffix:], s.buf[s.gapEnd:])
	s.buf = newBuf
	s.gapEnd = newCap - suffix
}

// insert places text so that it occupies positions [pos, pos+len(text)).
// The gap ends up trailing the inserted text.
func (s *gapStorage) insert(pos int, text []rune) {
	s.moveGap(pos)
	s.ensureGap(len(text))
	copy(s.buf[s.gapStart:], text)
	s.gapStart += len(text)
}

// delete removes the characters in [start, end), turning the freed
// space into gap.
func (s *gapStorage) delete(start, end int) {
	s.moveGap(start)
	s.gapEnd += end - start
}

// text returns the characters in [start, end) as a string.
// The caller guarantees the range is within bounds.
func (s *gapStorage) text(start, end int) string {
	if start >= end {
		return ""
	}
	out := make([]rune, 0, end-start)
	for p := start; p < end; p++ {
		out = append(out, s.charAt(p))
	}
	return string(out)
}

// free releases the character storage. Used when a buffer is killed;
// the storage must not be used afterwards.
func (s *gapStorage) free() {
	s.buf = nil
	s.gapStart = 0
	s.gapEnd = 0
}
