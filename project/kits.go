package project

import "sort"

// Slot names a drum voice independently of the machine playing it
type Slot int

const (
	Kick Slot = iota
	Snare
	ClosedHat
	OpenHat
	LowTom
	MidTom
	HighTom
	Crash
	Ride
	Clap
	Rimshot
	Cowbell
	Clave
	Maracas
	LowConga
	HighConga
	slotCount
)

// Kit maps drum slots to the notes one machine expects
type Kit struct {
	Name  string
	Notes [slotCount]uint8
}

func (k Kit) Note(s Slot) uint8 {
	if s < 0 || s >= slotCount {
		return k.Notes[Kick]
	}
	return k.Notes[s]
}

// DefaultKit is the General MIDI layout
const DefaultKit = "gm"

var kits = map[string]Kit{
	"gm": {Name: "General MIDI", Notes: [slotCount]uint8{
		36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 64, 63}},
	// the RD-8 snare sits on 40, not 38
	"rd8": {Name: "Behringer RD-8", Notes: [slotCount]uint8{
		36, 40, 42, 46, 45, 48, 50, 49, 51, 39, 37, 56, 75, 70, 64, 63}},
	"tr8s": {Name: "Roland TR-8S", Notes: [slotCount]uint8{
		36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 62, 63}},
	// slots past clap are placeholders on the ER-1
	"er1": {Name: "Korg ER-1", Notes: [slotCount]uint8{
		36, 38, 42, 46, 40, 41, 43, 49, 45, 39, 37, 56, 75, 70, 64, 63}},
}

// KitNames returns the available kit names, sorted
func KitNames() []string {
	names := make([]string, 0, len(kits))
	for name := range kits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetKit returns a kit by name, defaulting to General MIDI
func GetKit(name string) Kit {
	if kit, ok := kits[name]; ok {
		return kit
	}
	return kits[DefaultKit]
}
