package automation

// Source selects whether a layered value follows the source note or is
// fixed.
type Source int

const (
	FollowSource Source = iota
	Fixed
)

// InstrumentLayer duplicates notes from its location onto another track.
type InstrumentLayer struct {
	Header      `yaml:",inline"`
	Line0       int `yaml:"line0"`
	Line1       int `yaml:"line1"`
	TargetTrack int `yaml:"targetTrack"`

	NoteSource Source `yaml:"noteSource"`
	Note       uint8  `yaml:"note,omitempty"`

	VelocitySource Source `yaml:"velocitySource"`
	Velocity       uint8  `yaml:"velocity,omitempty"`

	// ApplyTargetVelocity scales layered notes by the target track's
	// velocity settings instead of sending them verbatim.
	ApplyTargetVelocity bool `yaml:"applyTargetVelocity,omitempty"`
}

func (l InstrumentLayer) LineRange() (int, int) {
	if l.Line1 < l.Line0 {
		return l.Line0, l.Line0
	}
	return l.Line0, l.Line1
}

func (l InstrumentLayer) withID(id int) InstrumentLayer {
	l.ID = id
	return l
}

// NoteFor returns the layered note for a source note
func (l InstrumentLayer) NoteFor(source uint8) uint8 {
	if l.NoteSource == Fixed {
		return min(l.Note, 127)
	}
	return source
}

// VelocityFor returns the layered velocity for a source velocity
func (l InstrumentLayer) VelocityFor(source uint8) uint8 {
	if l.VelocitySource == Fixed {
		return min(l.Velocity, 127)
	}
	return source
}
