package model

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestShortSideSize(t *testing.T) {
	tests := []struct {
		width, height int
		wantW, wantH  int
	}{
		{640, 480, 341, 256},
		{480, 640, 256, 341},
		{256, 256, 256, 256},
		{100, 1000, 256, 2560},
		{3, 2, 384, 256},
	}

	for _, tt := range tests {
		w, h := shortSideSize(tt.width, tt.height, 256)
		assert.Equal(t, tt.wantW, w, "%dx%d", tt.width, tt.height)
		assert.Equal(t, tt.wantH, h, "%dx%d", tt.width, tt.height)
	}
}

func TestCenterCropOffsets(t *testing.T) {
	// Each pixel encodes its own coordinates.
	img := image.NewRGBA(image.Rect(0, 0, 341, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 341; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	cropped := centerCrop(img, 224)
	require.Equal(t, image.Rect(0, 0, 224, 224), cropped.Bounds())

	corner := cropped.RGBAAt(0, 0)
	assert.Equal(t, uint8(58), corner.R)
	assert.Equal(t, uint8(16), corner.G)
}

func TestCenterCropPadsSmallImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	cropped := centerCrop(img, 4)
	assert.Equal(t, uint8(0), cropped.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(200), cropped.RGBAAt(1, 1).R)
	assert.Equal(t, uint8(200), cropped.RGBAAt(2, 2).R)
	assert.Equal(t, uint8(0), cropped.RGBAAt(3, 3).R)
}

func TestToOpaqueRGBDropsAlpha(t *testing.T) {
	img := uniformImage(2, 2, color.NRGBA{R: 100, G: 150, B: 200, A: 10})

	rgb := toOpaqueRGB(img)
	assert.Equal(t, color.NRGBA{R: 100, G: 150, B: 200, A: 255}, rgb.NRGBAAt(1, 1))
}

func TestImageNetPreprocessor(t *testing.T) {
	p := NewImageNetPreprocessor()
	img := uniformImage(500, 375, color.NRGBA{R: 255, G: 128, B: 0, A: 255})

	tensor, err := p.Preprocess(img)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 224, 224}, tensor.Shape)
	require.Len(t, tensor.Data, 3*224*224)

	plane := 224 * 224
	want := []float32{
		(1 - ImageNetMean[0]) / ImageNetStd[0],
		(128.0/255 - ImageNetMean[1]) / ImageNetStd[1],
		(0 - ImageNetMean[2]) / ImageNetStd[2],
	}
	for c := 0; c < 3; c++ {
		for _, pixel := range []int{0, plane / 2, plane - 1} {
			assert.InDelta(t, want[c], tensor.Data[c*plane+pixel], 0.05, "channel %d pixel %d", c, pixel)
		}
	}
}

func TestScalePreprocessor(t *testing.T) {
	p := &ScalePreprocessor{Size: 224}
	img := uniformImage(37, 91, color.NRGBA{R: 255, G: 0, B: 51, A: 255})

	tensor, err := p.Preprocess(img)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 224, 224, 3}, tensor.Shape)

	last := len(tensor.Data) - 3
	assert.InDelta(t, 1.0, tensor.Data[last], 0.01)
	assert.InDelta(t, 0.0, tensor.Data[last+1], 0.01)
	assert.InDelta(t, 0.2, tensor.Data[last+2], 0.01)
}

func TestMultispectralPreprocessor(t *testing.T) {
	p := &MultispectralPreprocessor{Size: 224}
	img := uniformImage(64, 48, color.NRGBA{R: 10, G: 20, B: 30, A: 40})

	tensor, err := p.Preprocess(img)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 224, 224, 4}, tensor.Shape)

	for _, pixel := range []int{0, 224*112 + 112, 224*224 - 1} {
		bands := tensor.Data[pixel*4 : pixel*4+4]
		assert.InDelta(t, 10, bands[0], 1)
		assert.InDelta(t, 20, bands[1], 1)
		assert.InDelta(t, 30, bands[2], 1)
		assert.InDelta(t, 40, bands[3], 1)
	}
}

func TestDecodeImage(t *testing.T) {
	img, format, err := DecodeImage(encodePNG(t, 5, 3))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 5, img.Bounds().Dx())

	_, _, err = DecodeImage(nil)
	assert.ErrorIs(t, err, ErrImageDecode)

	_, _, err = DecodeImage([]byte{0x89, 'P', 'N', 'G', 0, 0})
	assert.ErrorIs(t, err, ErrImageDecode)
}
