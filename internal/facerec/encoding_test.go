package facerec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodingWithFirst(v float64) Encoding {
	enc := make(Encoding, EncodingSize)
	enc[0] = v
	return enc
}

func TestParseEncoding(t *testing.T) {
	valid := make([]float64, EncodingSize)
	valid[3] = 0.42
	raw, err := json.Marshal(valid)
	require.NoError(t, err)

	enc, err := ParseEncoding(string(raw))
	require.NoError(t, err)
	assert.Len(t, enc, EncodingSize)
	assert.Equal(t, 0.42, enc[3])

	_, err = ParseEncoding("not json")
	assert.Error(t, err)

	_, err = ParseEncoding("[1.0, 2.0, 3.0]")
	assert.Error(t, err, "wrong vector size must be rejected")
}

func TestDistance(t *testing.T) {
	a := encodingWithFirst(0)
	b := encodingWithFirst(0.3)

	assert.InDelta(t, 0.3, Distance(a, b), 1e-9)
	assert.InDelta(t, 0, Distance(a, a), 1e-9)
}

func TestCompareFaces(t *testing.T) {
	probe := encodingWithFirst(0)
	known := []Encoding{
		encodingWithFirst(0.5),
		encodingWithFirst(0.7),
		encodingWithFirst(0.1),
	}

	matches := CompareFaces(known, probe, DefaultTolerance)
	assert.Equal(t, []bool{true, false, true}, matches)
}

func TestFirstMatchPrefersLoadOrderOverDistance(t *testing.T) {
	probe := encodingWithFirst(0)
	known := []Encoding{
		encodingWithFirst(0.55), // within tolerance, but far
		encodingWithFirst(0.01), // nearly identical
	}

	idx := FirstMatch(known, probe, DefaultTolerance)
	assert.Equal(t, 0, idx, "the first candidate within tolerance wins, not the nearest")
}

func TestFirstMatchNoCandidate(t *testing.T) {
	probe := encodingWithFirst(0)
	known := []Encoding{encodingWithFirst(2.0)}

	assert.Equal(t, -1, FirstMatch(known, probe, DefaultTolerance))
	assert.Equal(t, -1, FirstMatch(nil, probe, DefaultTolerance))
}

func TestDecodeDataURL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	b64 := base64.StdEncoding.EncodeToString(buf.Bytes())

	raw, err := DecodeDataURL("data:image/png;base64," + b64)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), raw)

	// Bare base64 without the data-URL prefix is accepted too.
	raw, err = DecodeDataURL(b64)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), raw)

	_, err = DecodeDataURL("data:image/png;base64,%%%%")
	assert.Error(t, err)

	_, err = DecodeDataURL(base64.StdEncoding.EncodeToString([]byte("not an image")))
	assert.Error(t, err)

	_, err = DecodeDataURL("")
	assert.Error(t, err)
}
