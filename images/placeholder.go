package images

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// palette holds muted poster-like tones the generator mixes gradients from.
var palette = []color.NRGBA{
	{R: 0x1b, G: 0x26, B: 0x3b, A: 0xff}, // midnight blue
	{R: 0x3d, G: 0x1e, B: 0x33, A: 0xff}, // plum
	{R: 0x14, G: 0x32, B: 0x2e, A: 0xff}, // deep teal
	{R: 0x40, G: 0x2a, B: 0x17, A: 0xff}, // umber
	{R: 0x2d, G: 0x13, B: 0x16, A: 0xff}, // oxblood
	{R: 0x22, G: 0x22, B: 0x2e, A: 0xff}, // slate
	{R: 0x0e, G: 0x25, B: 0x40, A: 0xff}, // harbor
	{R: 0x33, G: 0x30, B: 0x14, A: 0xff}, // olive
	{R: 0x3a, G: 0x18, B: 0x3f, A: 0xff}, // violet
	{R: 0x10, G: 0x3a, B: 0x3f, A: 0xff}, // petrol
}

// coarse grid the gradient is painted on before upscaling; small enough to
// keep rendering cheap, large enough for visible grain.
const (
	coarseW = 20
	coarseH = 30
)

// Generator renders placeholder artwork for items with no usable image
// reference. Rendering is fully seeded: the same seed always yields the same
// bytes, so placeholders are stable across requests and instances.
type Generator struct {
	Width  int
	Height int
}

func NewGenerator(width, height int) *Generator {
	if width <= 0 {
		width = 500
	}
	if height <= 0 {
		height = 750
	}
	return &Generator{Width: width, Height: height}
}

// Render produces a PNG for the seed, normally the item id.
func (g *Generator) Render(seed int64) ([]byte, error) {
	rng := rand.New(rand.NewSource(seed))

	top := palette[rng.Intn(len(palette))]
	bottom := palette[rng.Intn(len(palette))]

	coarse := image.NewNRGBA(image.Rect(0, 0, coarseW, coarseH))
	for y := 0; y < coarseH; y++ {
		t := float64(y) / float64(coarseH-1)
		base := lerpColor(top, bottom, t)
		for x := 0; x < coarseW; x++ {
			coarse.SetNRGBA(x, y, jitter(base, rng, 10))
		}
	}

	full := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	xdraw.CatmullRom.Scale(full, full.Bounds(), coarse, coarse.Bounds(), xdraw.Src, nil)

	smoothed := imaging.Blur(full, 1.2)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, smoothed, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: lerp8(a.R, b.R, t),
		G: lerp8(a.G, b.G, t),
		B: lerp8(a.B, b.B, t),
		A: 0xff,
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func jitter(c color.NRGBA, rng *rand.Rand, amount int) color.NRGBA {
	return color.NRGBA{
		R: clamp8(int(c.R) + rng.Intn(2*amount+1) - amount),
		G: clamp8(int(c.G) + rng.Intn(2*amount+1) - amount),
		B: clamp8(int(c.B) + rng.Intn(2*amount+1) - amount),
		A: 0xff,
	}
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
