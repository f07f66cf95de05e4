package wlserver

import "testing"

func TestFixedRoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, 24.5, -300.25, 1023.75}
	for _, f := range cases {
		got := FixedFromFloat(f).Float()
		if got != f {
			t.Fatalf("FixedFromFloat(%v).Float() = %v", f, got)
		}
	}
}

func TestStringEncodingPadsToFourBytes(t *testing.T) {
	e := &encoder{}
	e.putString("wl_compositor") // 13 chars + null = 14, pads to 16
	if len(e.buf) != 4+16 {
		t.Fatalf("encoded length %d, want 20", len(e.buf))
	}

	d := &decoder{buf: e.buf}
	s, err := d.str()
	if err != nil {
		t.Fatal(err)
	}
	if s != "wl_compositor" {
		t.Fatalf("decoded %q", s)
	}
	if d.offset != len(e.buf) {
		t.Fatalf("decoder consumed %d of %d bytes", d.offset, len(e.buf))
	}
}

func TestDecoderRejectsTruncatedString(t *testing.T) {
	e := &encoder{}
	e.putString("clipboard")
	d := &decoder{buf: e.buf[:6]}
	if _, err := d.str(); err == nil {
		t.Fatal("expected an error decoding a truncated string")
	}
}

func TestIntAndFixedDecode(t *testing.T) {
	e := &encoder{}
	e.putInt32(-42)
	e.putUint32(7)
	e.putFixed(FixedFromFloat(12.5))

	d := &decoder{buf: e.buf}
	if v, err := d.int32(); err != nil || v != -42 {
		t.Fatalf("int32: %v %v", v, err)
	}
	if v, err := d.uint32(); err != nil || v != 7 {
		t.Fatalf("uint32: %v %v", v, err)
	}
	f, err := d.fixed()
	if err != nil || f.Float() != 12.5 {
		t.Fatalf("fixed: %v %v", f.Float(), err)
	}
}

func TestPad4(t *testing.T) {
	cases := map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 7: 1, 8: 0}
	for n, want := range cases {
		if got := pad4(n); got != want {
			t.Fatalf("pad4(%d) = %d, want %d", n, got, want)
		}
	}
}
