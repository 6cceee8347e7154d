package model

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/transform"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Preprocessor turns a decoded image into the input tensor of a network.
type Preprocessor interface {
	Preprocess(img image.Image) (Tensor, error)
	// Shape is the input shape the preprocessor produces.
	Shape() []int64
}

// DecodeImage decodes any registered image format.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", newError(ErrImageDecode, "", errors.New("empty input"))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", newError(ErrImageDecode, "", err)
	}

	if size := img.Bounds().Size(); size.X < 1 || size.Y < 1 {
		return nil, "", newError(ErrImageDecode, "", errors.New("image has no pixels"))
	}

	return img, format, nil
}

var (
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// ImageNetPreprocessor resizes the shortest side to ResizeTo, center crops
// CropTo x CropTo and normalizes each channel, producing NCHW.
type ImageNetPreprocessor struct {
	ResizeTo int
	CropTo   int
	Mean     [3]float32
	Std      [3]float32
}

func NewImageNetPreprocessor() *ImageNetPreprocessor {
	return &ImageNetPreprocessor{
		ResizeTo: 256,
		CropTo:   224,
		Mean:     ImageNetMean,
		Std:      ImageNetStd,
	}
}

func (p *ImageNetPreprocessor) Shape() []int64 {
	return []int64{1, 3, int64(p.CropTo), int64(p.CropTo)}
}

func (p *ImageNetPreprocessor) Preprocess(img image.Image) (Tensor, error) {
	rgb := toOpaqueRGB(img)

	width, height := shortSideSize(rgb.Bounds().Dx(), rgb.Bounds().Dy(), p.ResizeTo)
	resized := transform.Resize(rgb, width, height, transform.Linear)
	cropped := centerCrop(resized, p.CropTo)

	tensor := NewTensor(p.Shape()...)
	plane := p.CropTo * p.CropTo
	for y := 0; y < p.CropTo; y++ {
		for x := 0; x < p.CropTo; x++ {
			offset := cropped.PixOffset(x, y)
			pixel := y*p.CropTo + x
			for c := 0; c < 3; c++ {
				v := float32(cropped.Pix[offset+c]) / 255
				tensor.Data[c*plane+pixel] = (v - p.Mean[c]) / p.Std[c]
			}
		}
	}

	return tensor, nil
}

// shortSideSize scales (width, height) so the shorter side equals target,
// truncating the longer side.
func shortSideSize(width, height, target int) (int, int) {
	if width <= height {
		return target, int(float64(target) * float64(height) / float64(width))
	}
	return int(float64(target) * float64(width) / float64(height)), target
}

// centerCrop cuts a size x size square from the middle of img. Sides shorter
// than size are zero padded.
func centerCrop(img image.Image, size int) *image.RGBA {
	bounds := img.Bounds()
	top := int(math.RoundToEven(float64(bounds.Dy()-size) / 2))
	left := int(math.RoundToEven(float64(bounds.Dx()-size) / 2))

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), img, image.Pt(bounds.Min.X+left, bounds.Min.Y+top), draw.Src)
	return dst
}

// toOpaqueRGB drops the alpha channel, keeping the straight color values.
func toOpaqueRGB(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 255
			dst.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}
	return dst
}

// ScalePreprocessor resizes to a fixed square, scales to [0,1] and produces
// NHWC.
type ScalePreprocessor struct {
	Size int
}

func (p *ScalePreprocessor) Shape() []int64 {
	return []int64{1, int64(p.Size), int64(p.Size), 3}
}

func (p *ScalePreprocessor) Preprocess(img image.Image) (Tensor, error) {
	resized := transform.Resize(toOpaqueRGB(img), p.Size, p.Size, transform.CatmullRom)

	tensor := NewTensor(p.Shape()...)
	for y := 0; y < p.Size; y++ {
		for x := 0; x < p.Size; x++ {
			offset := resized.PixOffset(x, y)
			base := (y*p.Size + x) * 3
			for c := 0; c < 3; c++ {
				tensor.Data[base+c] = float32(resized.Pix[offset+c]) / 255
			}
		}
	}

	return tensor, nil
}

// MultispectralPreprocessor reads four bands from a four channel image, the
// near infrared band being stored in the alpha channel. Band values are kept
// in their raw 0-255 range and laid out NHWC as R, G, B, NIR.
type MultispectralPreprocessor struct {
	Size int
}

func (p *MultispectralPreprocessor) Shape() []int64 {
	return []int64{1, int64(p.Size), int64(p.Size), 4}
}

func (p *MultispectralPreprocessor) Preprocess(img image.Image) (Tensor, error) {
	bounds := img.Bounds()
	visible := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	nir := image.NewGray(visible.Bounds())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			nir.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: c.A})
			c.A = 255
			visible.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}

	// Bands are resized separately so the infrared band does not premultiply
	// the visible ones.
	visibleResized := transform.Resize(visible, p.Size, p.Size, transform.Linear)
	nirResized := transform.Resize(nir, p.Size, p.Size, transform.Linear)

	tensor := NewTensor(p.Shape()...)
	for y := 0; y < p.Size; y++ {
		for x := 0; x < p.Size; x++ {
			offset := visibleResized.PixOffset(x, y)
			base := (y*p.Size + x) * 4
			tensor.Data[base] = float32(visibleResized.Pix[offset])
			tensor.Data[base+1] = float32(visibleResized.Pix[offset+1])
			tensor.Data[base+2] = float32(visibleResized.Pix[offset+2])
			// Gray resized by bild is replicated over R, G and B.
			tensor.Data[base+3] = float32(nirResized.Pix[nirResized.PixOffset(x, y)])
		}
	}

	return tensor, nil
}
