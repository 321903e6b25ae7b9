package backend

// Color represents a terminal color.
// Values 0-255 are palette colors, values with the RGB flag are true colors.
type Color int32

const (
	ColorDefault Color = -1
	ColorBlack   Color = 0
	ColorRed     Color = 1
	ColorGreen   Color = 2
	ColorYellow  Color = 3
	ColorBlue    Color = 4
	ColorMagenta Color = 5
	ColorCyan    Color = 6
	ColorWhite   Color = 7

	ColorBrightBlack Color = 8
	ColorBrightWhite Color = 15
)

const rgbFlag = 0x01000000

// ColorRGB creates a true color from RGB components.
func ColorRGB(r, g, b uint8) Color {
	return Color(int32(r)<<16 | int32(g)<<8 | int32(b) | rgbFlag)
}

// IsRGB returns true if this is a true color (not palette).
func (c Color) IsRGB() bool {
	return c != ColorDefault && c&rgbFlag != 0
}

// RGB returns the components of an RGB color, zeros otherwise.
func (c Color) RGB() (r, g, b uint8) {
	if !c.IsRGB() {
		return 0, 0, 0
	}
	return uint8((c >> 16) & 0xFF), uint8((c >> 8) & 0xFF), uint8(c & 0xFF)
}

// AttrMask represents text attributes.
type AttrMask uint32

const (
	AttrBold AttrMask = 1 << iota
	AttrReverse
	AttrUnderline
	AttrDim
)

// Style combines foreground, background colors and attributes.
type Style struct {
	fg    Color
	bg    Color
	attrs AttrMask
}

// DefaultStyle returns the default style (default colors, no attributes).
func DefaultStyle() Style {
	return Style{fg: ColorDefault, bg: ColorDefault}
}

// Foreground sets the foreground color.
func (s Style) Foreground(c Color) Style {
	s.fg = c
	return s
}

// Background sets the background color.
func (s Style) Background(c Color) Style {
	s.bg = c
	return s
}

// With toggles attribute bits.
func (s Style) With(mask AttrMask, on bool) Style {
	if on {
		s.attrs |= mask
	} else {
		s.attrs &^= mask
	}
	return s
}

// Bold enables or disables bold.
func (s Style) Bold(on bool) Style { return s.With(AttrBold, on) }

// Reverse enables or disables reverse video.
func (s Style) Reverse(on bool) Style { return s.With(AttrReverse, on) }

// Underline enables or disables underline.
func (s Style) Underline(on bool) Style { return s.With(AttrUnderline, on) }

// Dim enables or disables dim.
func (s Style) Dim(on bool) Style { return s.With(AttrDim, on) }

// Decompose returns the foreground, background, and attributes.
func (s Style) Decompose() (fg, bg Color, attrs AttrMask) {
	return s.fg, s.bg, s.attrs
}
