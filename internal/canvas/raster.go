package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/vec"
)

// Raster paints onto an RGBA image. Lines are anti-aliased quads of
// StrokeWidth pixels; text uses the 7x13 bitmap face.
type Raster struct {
	StrokeWidth float64

	mu   sync.Mutex
	img  *image.RGBA
	bg   color.Color
	face font.Face
	z    *vector.Rasterizer
}

func NewRaster(w, h int, bg color.Color) *Raster {
	if bg == nil {
		bg = color.White
	}
	r := &Raster{
		StrokeWidth: 1,
		img:         image.NewRGBA(image.Rect(0, 0, w, h)),
		bg:          bg,
		face:        basicfont.Face7x13,
		z:           vector.NewRasterizer(w, h),
	}
	r.Clear()
	return r
}

func (r *Raster) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

func (r *Raster) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(r.bg), image.Point{}, draw.Src)
}

func (r *Raster) Line(a, b vec.Vec2, c color.Color) {
	d := b.Sub(a)
	length := d.Length()
	hw := r.StrokeWidth / 2
	// a zero-length line becomes a square dot
	var o vec.Vec2
	if length == 0 {
		o = vec.Vec2{X: 0, Y: hw}
		a, b = a.Sub(vec.Vec2{X: hw}), b.Add(vec.Vec2{X: hw})
	} else {
		t := d.Mul(1 / length)
		o = vec.Vec2{X: -t.Y, Y: t.X}.Mul(hw)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	w, h := r.img.Bounds().Dx(), r.img.Bounds().Dy()
	r.z.Reset(w, h)
	r.z.MoveTo(f32(a.Add(o)))
	r.z.LineTo(f32(b.Add(o)))
	r.z.LineTo(f32(b.Sub(o)))
	r.z.LineTo(f32(a.Sub(o)))
	r.z.ClosePath()
	r.z.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{})
}

func (r *Raster) Text(at vec.Vec2, s string, c color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asc := r.face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.Point26_6{X: fixed.I(int(math.Round(at.X))), Y: fixed.I(int(math.Round(at.Y)) + asc)},
	}
	d.DrawString(s)
}

func (r *Raster) TextWidth(s string) float64 {
	return float64(font.MeasureString(r.face, s).Ceil())
}

func (r *Raster) LineHeight() float64 {
	return float64(r.face.Metrics().Height.Ceil())
}

// Image returns the backing image. Do not draw on it while a pass runs.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) PNG(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return png.Encode(w, r.img)
}

func f32(v vec.Vec2) (float32, float32) {
	return float32(v.X), float32(v.Y)
}
