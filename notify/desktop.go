package notify

import "github.com/gen2brain/beeep"

// Desktop sends OS notifications through beeep.
type Desktop struct {
	Icon string // path to an icon, may be empty
}

func (d Desktop) Notify(title, message string) error {
	return beeep.Notify(title, message, d.Icon)
}
