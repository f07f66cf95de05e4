package decoration

// glyph is one character's 5x7 bitmap, stored column-major: each byte
// is one column, bit 0 is the top row and bit 6 the bottom row (bit 7
// unused), matching the classic 5x7 dot-matrix layout used by small
// embedded displays.
type glyph [5]byte

const (
	glyphWidth  = 5
	glyphHeight = 7
	glyphGap    = 1
)

// font is the package-level fixed-width bitmap glyph table covering
// ASCII 0x20-0x7E. Lowercase letters reuse their uppercase glyph; the
// bridge only ever renders WM_NAME/_NET_WM_NAME strings in a titlebar
// a few pixels tall, where case is not distinguishable anyway.
var font = map[rune]glyph{
	' ': {0x00, 0x00, 0x00, 0x00, 0x00},
	'!': {0x00, 0x00, 0x5f, 0x00, 0x00},
	'"': {0x00, 0x07, 0x00, 0x07, 0x00},
	'#': {0x14, 0x7f, 0x14, 0x7f, 0x14},
	'$': {0x24, 0x2a, 0x7f, 0x2a, 0x12},
	'%': {0x23, 0x13, 0x08, 0x64, 0x62},
	'&': {0x36, 0x49, 0x55, 0x22, 0x50},
	'\'': {0x00, 0x05, 0x03, 0x00, 0x00},
	'(': {0x00, 0x1c, 0x22, 0x41, 0x00},
	')': {0x00, 0x41, 0x22, 0x1c, 0x00},
	'*': {0x14, 0x08, 0x3e, 0x08, 0x14},
	'+': {0x08, 0x08, 0x3e, 0x08, 0x08},
	',': {0x00, 0x50, 0x30, 0x00, 0x00},
	'-': {0x08, 0x08, 0x08, 0x08, 0x08},
	'.': {0x00, 0x60, 0x60, 0x00, 0x00},
	'/': {0x20, 0x10, 0x08, 0x04, 0x02},
	'0': {0x3e, 0x51, 0x49, 0x45, 0x3e},
	'1': {0x00, 0x42, 0x7f, 0x40, 0x00},
	'2': {0x42, 0x61, 0x51, 0x49, 0x46},
	'3': {0x21, 0x41, 0x45, 0x4b, 0x31},
	'4': {0x18, 0x14, 0x12, 0x7f, 0x10},
	'5': {0x27, 0x45, 0x45, 0x45, 0x39},
	'6': {0x3c, 0x4a, 0x49, 0x49, 0x30},
	'7': {0x01, 0x71, 0x09, 0x05, 0x03},
	'8': {0x36, 0x49, 0x49, 0x49, 0x36},
	'9': {0x06, 0x49, 0x49, 0x29, 0x1e},
	':': {0x00, 0x36, 0x36, 0x00, 0x00},
	';': {0x00, 0x56, 0x36, 0x00, 0x00},
	'<': {0x08, 0x14, 0x22, 0x41, 0x00},
	'=': {0x14, 0x14, 0x14, 0x14, 0x14},
	'>': {0x00, 0x41, 0x22, 0x14, 0x08},
	'?': {0x02, 0x01, 0x51, 0x09, 0x06},
	'@': {0x32, 0x49, 0x79, 0x41, 0x3e},
	'A': {0x7e, 0x11, 0x11, 0x11, 0x7e},
	'B': {0x7f, 0x49, 0x49, 0x49, 0x36},
	'C': {0x3e, 0x41, 0x41, 0x41, 0x22},
	'D': {0x7f, 0x41, 0x41, 0x22, 0x1c},
	'E': {0x7f, 0x49, 0x49, 0x49, 0x41},
	'F': {0x7f, 0x09, 0x09, 0x09, 0x01},
	'G': {0x3e, 0x41, 0x49, 0x49, 0x7a},
	'H': {0x7f, 0x08, 0x08, 0x08, 0x7f},
	'I': {0x00, 0x41, 0x7f, 0x41, 0x00},
	'J': {0x20, 0x40, 0x41, 0x3f, 0x01},
	'K': {0x7f, 0x08, 0x14, 0x22, 0x41},
	'L': {0x7f, 0x40, 0x40, 0x40, 0x40},
	'M': {0x7f, 0x02, 0x0c, 0x02, 0x7f},
	'N': {0x7f, 0x04, 0x08, 0x10, 0x7f},
	'O': {0x3e, 0x41, 0x41, 0x41, 0x3e},
	'P': {0x7f, 0x09, 0x09, 0x09, 0x06},
	'Q': {0x3e, 0x41, 0x51, 0x21, 0x5e},
	'R': {0x7f, 0x09, 0x19, 0x29, 0x46},
	'S': {0x46, 0x49, 0x49, 0x49, 0x31},
	'T': {0x01, 0x01, 0x7f, 0x01, 0x01},
	'U': {0x3f, 0x40, 0x40, 0x40, 0x3f},
	'V': {0x1f, 0x20, 0x40, 0x20, 0x1f},
	'W': {0x3f, 0x40, 0x38, 0x40, 0x3f},
	'X': {0x63, 0x14, 0x08, 0x14, 0x63},
	'Y': {0x07, 0x08, 0x70, 0x08, 0x07},
	'Z': {0x61, 0x51, 0x49, 0x45, 0x43},
	'[': {0x00, 0x7f, 0x41, 0x41, 0x00},
	'\\': {0x02, 0x04, 0x08, 0x10, 0x20},
	']': {0x00, 0x41, 0x41, 0x7f, 0x00},
	'^': {0x04, 0x02, 0x01, 0x02, 0x04},
	'_': {0x40, 0x40, 0x40, 0x40, 0x40},
	'`': {0x00, 0x01, 0x02, 0x04, 0x00},
	'{': {0x00, 0x08, 0x36, 0x41, 0x00},
	'|': {0x00, 0x00, 0x7f, 0x00, 0x00},
	'}': {0x00, 0x41, 0x36, 0x08, 0x00},
	'~': {0x08, 0x04, 0x08, 0x10, 0x08},
}

func init() {
	for r := 'a'; r <= 'z'; r++ {
		font[r] = font[r-32]
	}
}

// glyphFor returns the bitmap for r, falling back to a blank cell for
// any character the table doesn't cover, control characters included
// (titles are drawn as read from WM_NAME/_NET_WM_NAME, unfiltered).
func glyphFor(r rune) glyph {
	if g, ok := font[r]; ok {
		return g
	}
	return font[' ']
}

// drawText blits s into pixels starting at (x0, y0) using font,
// clipping silently against width/TitlebarHeight. Used by paint to
// render the titlebar's left-margin title.
func drawText(pixels []byte, width int32, x0, y0 int32, s string, color [4]byte) {
	set := func(x, y int32) {
		if x < 0 || x >= width || y < 0 || y >= TitlebarHeight {
			return
		}
		off := (y*width + x) * 4
		pixels[off+0] = color[0]
		pixels[off+1] = color[1]
		pixels[off+2] = color[2]
		pixels[off+3] = color[3]
	}

	cursor := x0
	for _, r := range s {
		if cursor >= width {
			break
		}
		g := glyphFor(r)
		for col := 0; col < glyphWidth; col++ {
			bits := g[col]
			for row := 0; row < glyphHeight; row++ {
				if bits&(1<<uint(row)) != 0 {
					set(cursor+int32(col), y0+int32(row))
				}
			}
		}
		cursor += glyphWidth + glyphGap
	}
}
