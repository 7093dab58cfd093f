// Package imaging provides decoding and normalization for pipeline image
// payloads. Inputs arrive as png, jpeg, or webp; everything downstream of the
// sample source works on normalized PNG bytes.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
)

// ErrUndecodable indicates a payload that no registered image codec accepts.
var ErrUndecodable = errors.New("image payload is not decodable")

// Decode parses an image payload, returning the decoded image and the
// source format name. Wraps ErrUndecodable on failure.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	return img, format, nil
}

// Normalize decodes an image payload and re-encodes it as PNG.
// Payloads already in PNG form are passed through without re-encoding.
func Normalize(data []byte) ([]byte, error) {
	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if format == "png" {
		return data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI encodes normalized PNG bytes as a base64 data URI suitable for
// vision-model message content.
func DataURI(pngData []byte) (string, error) {
	uri, err := encoding.EncodeImageDataURI(pngData, document.PNG)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return uri, nil
}
