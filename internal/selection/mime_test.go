package selection

import "testing"

// mimeAvailable and hasMime never touch b.conn, so a zero-value
// Bridge exercises the pure MIME-matching logic, including the
// UTF8_STRING <-> text/plain;charset=utf-8 fallback.

func TestMimeAvailableDirectMatch(t *testing.T) {
	b := &Bridge{}
	st := &state{mimes: []string{"text/plain", "UTF8_STRING"}}
	if !b.mimeAvailable(st, "UTF8_STRING") {
		t.Fatal("expected a direct MIME match to be available")
	}
	if b.mimeAvailable(st, "image/png") {
		t.Fatal("expected an unlisted MIME to be unavailable")
	}
}

func TestMimeAvailableUTF8Fallback(t *testing.T) {
	b := &Bridge{}
	st := &state{mimes: []string{"text/plain;charset=utf-8"}}
	if !b.mimeAvailable(st, "UTF8_STRING") {
		t.Fatal("expected UTF8_STRING to be synthesized from text/plain;charset=utf-8")
	}
	if b.hasMime(st, "UTF8_STRING") {
		t.Fatal("hasMime must report the literal list only, not the synthesized fallback")
	}
}

func TestMimeAvailableNoFallbackWithoutUTF8Plain(t *testing.T) {
	b := &Bridge{}
	st := &state{mimes: []string{"text/plain"}} // no ;charset=utf-8
	if b.mimeAvailable(st, "UTF8_STRING") {
		t.Fatal("plain text/plain (no utf-8 charset) must not synthesize UTF8_STRING")
	}
}

func TestControlAtomsFiltered(t *testing.T) {
	for _, name := range []string{"TARGETS", "MULTIPLE", "SAVE_TARGETS", "TIMESTAMP"} {
		if !controlAtomNames[name] {
			t.Fatalf("expected %q to be a filtered control atom", name)
		}
	}
	if controlAtomNames["text/plain"] {
		t.Fatal("a real MIME name must not be treated as a control atom")
	}
}

func TestKindAtomNames(t *testing.T) {
	if Clipboard.AtomName() != "CLIPBOARD" {
		t.Fatalf("got %q, want CLIPBOARD", Clipboard.AtomName())
	}
	if Primary.AtomName() != "PRIMARY" {
		t.Fatalf("got %q, want PRIMARY", Primary.AtomName())
	}
}
