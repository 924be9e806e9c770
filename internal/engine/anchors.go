package engine

// AnchorMap records the grid cells discovered to sit on the improving
// path, ranked by discovery order. Entries are only added, never removed;
// a full controller reset replaces the whole map.
type AnchorMap struct {
	rank  map[Cell]int
	level int
}

func NewAnchorMap() *AnchorMap {
	return &AnchorMap{rank: make(map[Cell]int)}
}

// Register adds c with the next discovery-order priority. Returns false
// if the cell was already an anchor.
func (m *AnchorMap) Register(c Cell) bool {
	if _, ok := m.rank[c]; ok {
		return false
	}
	m.level++
	m.rank[c] = 10 - m.level
	return true
}

// Rank returns the priority assigned to c at discovery.
func (m *AnchorMap) Rank(c Cell) (int, bool) {
	r, ok := m.rank[c]
	return r, ok
}

func (m *AnchorMap) Len() int {
	return m.level
}

// Snapshot copies the map for observers (status surfaces, tests).
func (m *AnchorMap) Snapshot() map[Cell]int {
	out := make(map[Cell]int, len(m.rank))
	for c, r := range m.rank {
		out[c] = r
	}
	return out
}
