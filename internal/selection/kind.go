// Package selection implements the selection bridge: bidirectional
// X11 selection <-> host clipboard/primary-selection mirroring, with
// streaming MIME transfer and INCR support on the X side.
package selection

// Kind distinguishes the two selections the bridge mirrors
// identically but separately.
type Kind int

const (
	Clipboard Kind = iota
	Primary
)

func (k Kind) String() string {
	if k == Primary {
		return "PRIMARY"
	}
	return "CLIPBOARD"
}

// AtomName is the X11 selection atom name for k.
func (k Kind) AtomName() string { return k.String() }
