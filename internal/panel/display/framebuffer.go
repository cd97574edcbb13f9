package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
)

// Geometry of the 4.2" e-paper panel.
const (
	Width  = 400
	Height = 300
)

var palette = color.Palette{color.White, color.Black}

var _ core.Display = (*Framebuffer)(nil)

// Framebuffer is a 1-bit frame buffer that is written to a PNG file on commit.
type Framebuffer struct {
	path string

	mu  sync.Mutex
	img *image.Paletted
}

// NewFramebuffer returns a blank frame buffer committed to path.
func NewFramebuffer(path string) *Framebuffer {
	fb := &Framebuffer{
		path: path,
		img:  image.NewPaletted(image.Rect(0, 0, Width, Height), palette),
	}
	fb.Clear()
	return fb
}

func (fb *Framebuffer) Clear() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	draw.Draw(fb.img, fb.img.Bounds(), image.White, image.Point{}, draw.Src)
}

// Text draws s with its top-left corner at (x, y). Glyphs past the edge are clipped.
func (fb *Framebuffer) Text(s string, x, y int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  fb.img,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(s)
}

// Show writes the frame to a temporary file next to path and renames it into place.
func (fb *Framebuffer) Show() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	dir := filepath.Dir(fb.path)
	tmp, err := os.CreateTemp(dir, ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := png.Encode(tmp, fb.img); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), fb.path); err != nil {
		return fmt.Errorf("commit frame: %w", err)
	}
	return nil
}

// Image returns a copy of the current frame.
func (fb *Framebuffer) Image() *image.Paletted {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	cp := image.NewPaletted(fb.img.Bounds(), palette)
	copy(cp.Pix, fb.img.Pix)
	return cp
}
