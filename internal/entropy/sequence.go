package entropy

// Sequence replays a fixed list of floats, cycling when exhausted. Intn maps
// the next float onto [0, n). Used to script random draws in tests.
type Sequence struct {
	Values []float64
	pos    int
}

// NewSequence returns a Sequence over vals. An empty list always yields 0.
func NewSequence(vals ...float64) *Sequence {
	return &Sequence{Values: vals}
}

func (s *Sequence) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}

func (s *Sequence) Intn(n int) int {
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Draws returns how many values have been consumed.
func (s *Sequence) Draws() int { return s.pos }
