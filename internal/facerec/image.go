package facerec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// DecodeDataURL turns a browser-captured frame ("data:image/...;base64,....."
// or bare base64) into raw image bytes, validating that the payload really is
// a decodable image before it is shipped to the engine.
func DecodeDataURL(data string) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("no image data provided")
	}

	if idx := strings.IndexByte(data, ','); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return raw, nil
}
