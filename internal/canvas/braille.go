package canvas

import (
	"image/color"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"seehuhn.de/go/geom/vec"
)

// Braille is a terminal surface: every cell holds a 2x4 grid of micro-pixels
// rendered as one braille rune. Colours are ignored; the terminal foreground
// applies. Text overlays whole cells.
type Braille struct {
	mu   sync.Mutex
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
	text [][]rune  // 0 = no text
}

func NewBraille(cols, rows int) *Braille {
	b := &Braille{}
	b.Resize(cols, rows)
	return b
}

// Resize reallocates the grid and drops its content.
func (b *Braille) Resize(cols, rows int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.w, b.h = max(cols, 1), max(rows, 1)
	b.m = make([][]uint8, b.h)
	b.text = make([][]rune, b.h)
	for i := range b.m {
		b.m[i] = make([]uint8, b.w)
		b.text[i] = make([]rune, b.w)
	}
}

// Cells reports the grid size in terminal cells.
func (b *Braille) Cells() (cols, rows int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.w, b.h
}

func (b *Braille) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.w * 2, b.h * 4
}

func (b *Braille) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for y := range b.m {
		clear(b.m[y])
		clear(b.text[y])
	}
}

func (b *Braille) Line(p, q vec.Vec2, _ color.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drawLineMicro(toMicro(p.X), toMicro(p.Y), toMicro(q.X), toMicro(q.Y))
}

func (b *Braille) Text(at vec.Vec2, s string, _ color.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cx, cy := toMicro(at.X)/2, toMicro(at.Y)/4
	if cy < 0 || cy >= b.h {
		return
	}
	for _, r := range s {
		if cx >= 0 && cx < b.w {
			b.text[cy][cx] = r
		}
		cx++
	}
}

func (b *Braille) TextWidth(s string) float64 {
	return float64(2 * utf8.RuneCountInString(s))
}

func (b *Braille) LineHeight() float64 { return 4 }

// Pixel reports whether the micro-pixel at (mx, my) is set.
func (b *Braille) Pixel(mx, my int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	cx, cy := mx/2, my/4
	if mx < 0 || my < 0 || cy >= b.h || cx >= b.w {
		return false
	}
	return b.m[cy][cx]&brailleBit(mx%2, my%4) != 0
}

// Lines renders the grid, one string per cell row.
func (b *Braille) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			switch mask := b.m[y][x]; {
			case b.text[y][x] != 0:
				row[x] = b.text[y][x]
			case mask == 0:
				row[x] = ' '
			default:
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = string(row)
	}
	return out
}

func (b *Braille) String() string { return strings.Join(b.Lines(), "\n") }

func toMicro(v float64) int {
	// keep Bresenham bounded for points far off the grid
	const lim = 1 << 16
	if math.IsNaN(v) {
		return -1
	}
	return int(math.Round(math.Max(-lim, math.Min(lim, v))))
}

func brailleBit(rx, ry int) uint8 {
	if rx == 0 {
		return [4]uint8{0x01, 0x02, 0x04, 0x40}[ry]
	}
	return [4]uint8{0x08, 0x10, 0x20, 0x80}[ry]
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (b *Braille) setPixel(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= brailleBit(mx%2, my%4)
}

// drawLineMicro draws a line on the microgrid using Bresenham
func (b *Braille) drawLineMicro(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.setPixel(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
