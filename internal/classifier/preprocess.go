package classifier

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

// Layout is the memory order of the input tensor.
type Layout string

const (
	LayoutNHWC Layout = "nhwc"
	LayoutNCHW Layout = "nchw"
)

// Preprocessor converts decoded images into model input.
type Preprocessor struct {
	Size   int
	Layout Layout
}

// Shape returns the batch-of-one input shape.
func (p Preprocessor) Shape() []int64 {
	s := int64(p.Size)
	if p.Layout == LayoutNCHW {
		return []int64{1, 3, s, s}
	}
	return []int64{1, s, s, 3}
}

// LoadImage decodes the file at path.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// Tensor resizes img to Size x Size with nearest-neighbour sampling, drops
// alpha and scales each 8-bit channel into [0,1].
func (p Preprocessor) Tensor(img image.Image) []float32 {
	size := p.Size
	resized := resize.Resize(uint(size), uint(size), img, resize.NearestNeighbor)
	bounds := resized.Bounds()

	plane := size * size
	data := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBAModel.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			r := float32(c.R) / 255.0
			g := float32(c.G) / 255.0
			b := float32(c.B) / 255.0

			idx := y*size + x
			if p.Layout == LayoutNCHW {
				data[idx] = r
				data[plane+idx] = g
				data[2*plane+idx] = b
			} else {
				data[3*idx] = r
				data[3*idx+1] = g
				data[3*idx+2] = b
			}
		}
	}
	return data
}
