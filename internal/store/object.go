package store

import "fmt"

// Kind tags the variant carried by an Object.
type Kind int

const (
	KindSurface Kind = iota
	KindBuffer
	KindSeat
	KindPointer
	KindKeyboard
	KindTouch
	KindOutput
	KindXdgOutput
	KindRelativePointer
	KindConfinedPointer
	KindLockedPointer
	KindTabletSeat
	KindTablet
	KindTool
	KindPad
	KindPadGroup
	KindRing
	KindStrip
	KindDrm
	KindDmabufFeedback
)

func (k Kind) String() string {
	switch k {
	case KindSurface:
		return "Surface"
	case KindBuffer:
		return "Buffer"
	case KindSeat:
		return "Seat"
	case KindPointer:
		return "Pointer"
	case KindKeyboard:
		return "Keyboard"
	case KindTouch:
		return "Touch"
	case KindOutput:
		return "Output"
	case KindXdgOutput:
		return "XdgOutput"
	case KindRelativePointer:
		return "RelativePointer"
	case KindConfinedPointer:
		return "ConfinedPointer"
	case KindLockedPointer:
		return "LockedPointer"
	case KindTabletSeat:
		return "TabletSeat"
	case KindTablet:
		return "Tablet"
	case KindTool:
		return "Tool"
	case KindPad:
		return "Pad"
	case KindPadGroup:
		return "PadGroup"
	case KindRing:
		return "Ring"
	case KindStrip:
		return "Strip"
	case KindDrm:
		return "Drm"
	case KindDmabufFeedback:
		return "DmabufFeedback"
	default:
		return "Unknown"
	}
}

// Object is a tagged variant carrying, for one logical bridged object,
// its server-facing handle and its client-facing handle plus
// role-specific state. Both handles in an Object refer to the same
// logical resource and both carry the same ObjectKey.
type Object struct {
	Kind Kind
	Key  ObjectKey
	data any
}

func newObject(key ObjectKey, kind Kind, data any) Object {
	return Object{Kind: kind, Key: key, data: data}
}

// as returns data typed as T, panicking if kind doesn't match: a
// wrong-variant access is a programmer error, not a runtime
// condition to tolerate.
func as[T any](o Object, want Kind) T {
	if o.Kind != want {
		panic(fmt.Sprintf("store: object %v is %s, not %s", o.Key, o.Kind, want))
	}
	return o.data.(T)
}

// asOK returns data typed as T and whether the variant matched, for
// sites that must tolerate the "wrong" variant as a normal outcome
// (e.g. probing an Object whose kind isn't known up front).
func asOK[T any](o Object, want Kind) (T, bool) {
	if o.Kind != want {
		var zero T
		return zero, false
	}
	return o.data.(T), true
}

// New and As/Must are the generic constructor/accessor pair used by
// packages that own their own payload type (internal/relay's
// SurfaceData in particular) so that Store never needs
// to import those packages.
func New[T any](key ObjectKey, kind Kind, data T) Object { return newObject(key, kind, data) }
func As[T any](o Object, kind Kind) (T, bool)            { return asOK[T](o, kind) }
func Must[T any](o Object, kind Kind) T                  { return as[T](o, kind) }

// Generic variant payloads. These hold only what the bridge needs to
// relay each interface pair; wire handles are themselves defined in
// internal/relay and internal/clientside and stored here as `any` to
// avoid a store -> relay import cycle (store is the leaf package).

type SeatData struct {
	ServerSeat any
	ClientSeat any
	Name       string
	Caps       uint32
}

func NewSeat(key ObjectKey, d SeatData) Object { return newObject(key, KindSeat, d) }
func AsSeat(o Object) (SeatData, bool)         { return asOK[SeatData](o, KindSeat) }
func MustSeat(o Object) SeatData               { return as[SeatData](o, KindSeat) }

type PointerData struct {
	ServerPointer any
	ClientPointer any
	Seat          ObjectKey
}

func NewPointer(key ObjectKey, d PointerData) Object { return newObject(key, KindPointer, d) }
func AsPointer(o Object) (PointerData, bool)         { return asOK[PointerData](o, KindPointer) }

type KeyboardData struct {
	ServerKeyboard any
	ClientKeyboard any
	Seat           ObjectKey
}

func NewKeyboard(key ObjectKey, d KeyboardData) Object { return newObject(key, KindKeyboard, d) }
func AsKeyboard(o Object) (KeyboardData, bool)         { return asOK[KeyboardData](o, KindKeyboard) }

type TouchData struct {
	ServerTouch any
	ClientTouch any
	Seat        ObjectKey
}

func NewTouch(key ObjectKey, d TouchData) Object { return newObject(key, KindTouch, d) }
func AsTouch(o Object) (TouchData, bool)         { return asOK[TouchData](o, KindTouch) }

type OutputData struct {
	ServerOutput any
	ClientOutput any
	// Name is the wl_output global name, used to correlate the
	// matching XdgOutput when xdg-output is advertised.
	Name uint32
}

func NewOutput(key ObjectKey, d OutputData) Object { return newObject(key, KindOutput, d) }
func AsOutput(o Object) (OutputData, bool)         { return asOK[OutputData](o, KindOutput) }
func MustOutput(o Object) OutputData               { return as[OutputData](o, KindOutput) }

type XdgOutputData struct {
	ServerXdgOutput any
	ClientXdgOutput any
	Output          ObjectKey
}

func NewXdgOutput(key ObjectKey, d XdgOutputData) Object { return newObject(key, KindXdgOutput, d) }
func AsXdgOutput(o Object) (XdgOutputData, bool)         { return asOK[XdgOutputData](o, KindXdgOutput) }

type RelativePointerData struct {
	ServerRelativePointer any
	ClientRelativePointer any
}

func NewRelativePointer(key ObjectKey, d RelativePointerData) Object {
	return newObject(key, KindRelativePointer, d)
}
func AsRelativePointer(o Object) (RelativePointerData, bool) {
	return asOK[RelativePointerData](o, KindRelativePointer)
}

type ConfinedPointerData struct {
	ServerConfinedPointer any
	ClientConfinedPointer any
}

func NewConfinedPointer(key ObjectKey, d ConfinedPointerData) Object {
	return newObject(key, KindConfinedPointer, d)
}
func AsConfinedPointer(o Object) (ConfinedPointerData, bool) {
	return asOK[ConfinedPointerData](o, KindConfinedPointer)
}

type LockedPointerData struct {
	ServerLockedPointer any
	ClientLockedPointer any
}

func NewLockedPointer(key ObjectKey, d LockedPointerData) Object {
	return newObject(key, KindLockedPointer, d)
}
func AsLockedPointer(o Object) (LockedPointerData, bool) {
	return asOK[LockedPointerData](o, KindLockedPointer)
}

// TabletSeatData and its children model the late-initialized tablet
// subtree: Tool/Pad/PadGroup/Ring/Strip are born from a parent event
// before the bridge assigns them an ObjectKey.
type TabletSeatData struct {
	ServerTabletSeat any
	ClientTabletSeat any
	Seat             ObjectKey
}

func NewTabletSeat(key ObjectKey, d TabletSeatData) Object { return newObject(key, KindTabletSeat, d) }
func AsTabletSeat(o Object) (TabletSeatData, bool)         { return asOK[TabletSeatData](o, KindTabletSeat) }

type TabletData struct {
	ServerTablet any
	ClientTablet any
	TabletSeat   ObjectKey
}

func NewTablet(key ObjectKey, d TabletData) Object { return newObject(key, KindTablet, d) }
func AsTablet(o Object) (TabletData, bool)         { return asOK[TabletData](o, KindTablet) }

type ToolData struct {
	ServerTool any
	ClientTool any
	TabletSeat ObjectKey
}

func NewTool(key ObjectKey, d ToolData) Object { return newObject(key, KindTool, d) }
func AsTool(o Object) (ToolData, bool)         { return asOK[ToolData](o, KindTool) }

type PadData struct {
	ServerPad  any
	ClientPad  any
	TabletSeat ObjectKey
}

func NewPad(key ObjectKey, d PadData) Object { return newObject(key, KindPad, d) }
func AsPad(o Object) (PadData, bool)         { return asOK[PadData](o, KindPad) }

type PadGroupData struct {
	ServerPadGroup any
	ClientPadGroup any
	Pad            ObjectKey
}

func NewPadGroup(key ObjectKey, d PadGroupData) Object { return newObject(key, KindPadGroup, d) }
func AsPadGroup(o Object) (PadGroupData, bool)         { return asOK[PadGroupData](o, KindPadGroup) }

type RingData struct {
	ServerRing any
	ClientRing any
	PadGroup   ObjectKey
}

func NewRing(key ObjectKey, d RingData) Object { return newObject(key, KindRing, d) }
func AsRing(o Object) (RingData, bool)         { return asOK[RingData](o, KindRing) }

type StripData struct {
	ServerStrip any
	ClientStrip any
	PadGroup    ObjectKey
}

func NewStrip(key ObjectKey, d StripData) Object { return newObject(key, KindStrip, d) }
func AsStrip(o Object) (StripData, bool)         { return asOK[StripData](o, KindStrip) }

type DrmData struct {
	ServerDrm any
	ClientDrm any
	Node      string
}

func NewDrm(key ObjectKey, d DrmData) Object { return newObject(key, KindDrm, d) }
func AsDrm(o Object) (DrmData, bool)         { return asOK[DrmData](o, KindDrm) }

type DmabufFeedbackData struct {
	ServerFeedback any
	ClientFeedback any
}

func NewDmabufFeedback(key ObjectKey, d DmabufFeedbackData) Object {
	return newObject(key, KindDmabufFeedback, d)
}
func AsDmabufFeedback(o Object) (DmabufFeedbackData, bool) {
	return asOK[DmabufFeedbackData](o, KindDmabufFeedback)
}
