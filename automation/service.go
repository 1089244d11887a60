package automation

// Service owns the automation stores of a song.
type Service struct {
	CC        *Store[MidiCcAutomation]
	PitchBend *Store[PitchBendAutomation]
	Layers    *Store[InstrumentLayer]
}

// NewService creates a service with empty stores
func NewService() *Service {
	return &Service{
		CC:        NewStore[MidiCcAutomation](),
		PitchBend: NewStore[PitchBendAutomation](),
		Layers:    NewStore[InstrumentLayer](),
	}
}

// CCFor returns the CC automations attached to loc
func (s *Service) CCFor(loc Location) []MidiCcAutomation {
	return s.CC.ForColumn(loc)
}

// PitchBendsFor returns the pitch bend automations attached to loc
func (s *Service) PitchBendsFor(loc Location) []PitchBendAutomation {
	return s.PitchBend.ForColumn(loc)
}

// LayersFor returns the instrument layers attached to loc
func (s *Service) LayersFor(loc Location) []InstrumentLayer {
	return s.Layers.ForColumn(loc)
}

// HasAutomations reports whether anything enabled covers the cell
func (s *Service) HasAutomations(loc Location, line int) bool {
	return s.CC.Affects(loc, line) || s.PitchBend.Affects(loc, line) || s.Layers.Affects(loc, line)
}

// Weight returns the mean normalized value of the enabled CC and pitch
// bend automations covering the cell, or 0 when there are none.
func (s *Service) Weight(loc Location, line int) float64 {
	var sum float64
	var n int
	for _, a := range s.CC.At(loc, line) {
		sum += a.Weight(line)
		n++
	}
	for _, a := range s.PitchBend.At(loc, line) {
		sum += a.Weight(line)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Revision changes whenever any store is mutated
func (s *Service) Revision() uint64 {
	return s.CC.Revision() + s.PitchBend.Revision() + s.Layers.Revision()
}

// Subscribe registers fn with every store
func (s *Service) Subscribe(fn func(Invalidation)) (unsubscribe func()) {
	u1 := s.CC.Subscribe(fn)
	u2 := s.PitchBend.Subscribe(fn)
	u3 := s.Layers.Subscribe(fn)
	return func() {
		u1()
		u2()
		u3()
	}
}

// Clear empties every store
func (s *Service) Clear() {
	s.CC.Clear()
	s.PitchBend.Clear()
	s.Layers.Clear()
}
