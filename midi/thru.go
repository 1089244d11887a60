package midi

// NoteOutput is the part of the Dispatcher live input needs
type NoteOutput interface {
	NoteOn(port string, channel, note, velocity uint8)
	NoteOff(port string, channel, note uint8)
}

// ThruConfig routes a keyboard to an output channel
type ThruConfig struct {
	Port    string
	Channel uint8 // output channel 0-15
	Filter  int   // input channel 1-16, 0 accepts all
}

// Thru forwards a controller's notes to out until the controller is
// closed. Blocking - run in goroutine.
func Thru(c Controller, out NoteOutput, cfg ThruConfig) {
	for ev := range c.NoteEvents() {
		if cfg.Filter > 0 && int(ev.Channel)+1 != cfg.Filter {
			continue
		}
		if ev.Velocity == 0 {
			out.NoteOff(cfg.Port, cfg.Channel, ev.Note)
		} else {
			out.NoteOn(cfg.Port, cfg.Channel, ev.Note, ev.Velocity)
		}
	}
}
