package output

import (
	"strings"
)

// BoxStyle defines the character set for drawing boxes
type BoxStyle struct {
	TopLeft     rune
	TopRight    rune
	BottomLeft  rune
	BottomRight rune
	Horizontal  rune
	Vertical    rune
}

var (
	ASCIIStyle = BoxStyle{
		TopLeft:     '+',
		TopRight:    '+',
		BottomLeft:  '+',
		BottomRight: '+',
		Horizontal:  '-',
		Vertical:    '|',
	}

	// ASCIIFocusStyle marks the focused window when Unicode is off
	ASCIIFocusStyle = BoxStyle{
		TopLeft:     '#',
		TopRight:    '#',
		BottomLeft:  '#',
		BottomRight: '#',
		Horizontal:  '=',
		Vertical:    '#',
	}

	UnicodeStyle = BoxStyle{
		TopLeft:     '┌',
		TopRight:    '┐',
		BottomLeft:  '└',
		BottomRight: '┘',
		Horizontal:  '─',
		Vertical:    '│',
	}

	UnicodeFocusStyle = BoxStyle{
		TopLeft:     '╔',
		TopRight:    '╗',
		BottomLeft:  '╚',
		BottomRight: '╝',
		Horizontal:  '═',
		Vertical:    '║',
	}
)

// Canvas is a 2D character buffer. Writes outside it are ignored.
type Canvas struct {
	Width  int
	Height int
	buffer [][]rune
	style  BoxStyle
	focus  BoxStyle
}

// NewCanvas creates a blank canvas
func NewCanvas(width, height int, useUnicode bool) *Canvas {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = []rune(strings.Repeat(" ", width))
	}

	c := &Canvas{Width: width, Height: height, buffer: buffer, style: ASCIIStyle, focus: ASCIIFocusStyle}
	if useUnicode {
		c.style, c.focus = UnicodeStyle, UnicodeFocusStyle
	}
	return c
}

// SetCell sets a character at the specified position
func (c *Canvas) SetCell(x, y int, r rune) {
	if x >= 0 && x < c.Width && y >= 0 && y < c.Height {
		c.buffer[y][x] = r
	}
}

// GetCell returns the character at the specified position
func (c *Canvas) GetCell(x, y int) rune {
	if x >= 0 && x < c.Width && y >= 0 && y < c.Height {
		return c.buffer[y][x]
	}
	return ' '
}

// DrawBox draws an outline; focused boxes use the heavier style
func (c *Canvas) DrawBox(x, y, width, height int, focused bool) {
	if width < 2 || height < 2 {
		return
	}
	s := c.style
	if focused {
		s = c.focus
	}

	for i := 1; i < width-1; i++ {
		c.SetCell(x+i, y, s.Horizontal)
		c.SetCell(x+i, y+height-1, s.Horizontal)
	}
	for i := 1; i < height-1; i++ {
		c.SetCell(x, y+i, s.Vertical)
		c.SetCell(x+width-1, y+i, s.Vertical)
	}
	c.SetCell(x, y, s.TopLeft)
	c.SetCell(x+width-1, y, s.TopRight)
	c.SetCell(x, y+height-1, s.BottomLeft)
	c.SetCell(x+width-1, y+height-1, s.BottomRight)
}

// ClearRect blanks the inside of a box so windows drawn later hide the
// ones below
func (c *Canvas) ClearRect(x, y, width, height int) {
	for dy := 0; dy < height; dy++ {
		for dx := 0; dx < width; dx++ {
			c.SetCell(x+dx, y+dy, ' ')
		}
	}
}

// DrawText writes at most maxWidth runes of text
func (c *Canvas) DrawText(x, y, maxWidth int, text string) {
	i := 0
	for _, r := range text {
		if i >= maxWidth {
			return
		}
		c.SetCell(x+i, y, r)
		i++
	}
}

// String renders the canvas with trailing blanks trimmed from each row
func (c *Canvas) String() string {
	var sb strings.Builder
	for i, row := range c.buffer {
		sb.WriteString(strings.TrimRight(string(row), " "))
		if i < len(c.buffer)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
