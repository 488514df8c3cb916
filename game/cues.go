package game

import "easybingo/beep"

// Beeps plays the cue tones from package beep.
type Beeps struct{}

func (Beeps) Start() { beep.PlayStart() }
func (Beeps) End()   { beep.PlayEnd() }
func (Beeps) Error() { beep.PlayError() }
func (Beeps) Win()   { beep.PlayWin() }
