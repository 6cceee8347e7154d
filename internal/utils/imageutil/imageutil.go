package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ConvertImage re-encodes a BMP or TIFF upload as png or jpeg so browsers can
// display it.
func ConvertImage(data []byte, from, to string) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	switch from {
	case "bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
	case "tiff":
		img, err = tiff.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported source format %q", from)
	}
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	switch to {
	case "png":
		err = png.Encode(&output, img)
	case "jpg", "jpeg":
		err = jpeg.Encode(&output, img, &jpeg.Options{Quality: 90})
	default:
		return nil, fmt.Errorf("unsupported target format %q", to)
	}
	if err != nil {
		return nil, err
	}

	return output.Bytes(), nil
}
