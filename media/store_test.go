package media

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vault/apperr"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPutImageMakesThumbnail(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	obj, err := s.Put("Cat.PNG", bytes.NewReader(pngBytes(t, 400, 100)))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(obj.Key, ".png"))
	assert.Equal(t, URLPrefix+obj.Key, obj.URL)
	require.NotEmpty(t, obj.ThumbnailURL)

	thumbPath, err := s.Path(strings.TrimPrefix(obj.ThumbnailURL, URLPrefix))
	require.NoError(t, err)
	f, err := os.Open(thumbPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestPutPlainFile(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	obj, err := s.Put("notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Empty(t, obj.ThumbnailURL)
	assert.Equal(t, int64(5), obj.Size)

	path, err := s.Path(obj.Key)
	require.NoError(t, err)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestPutBrokenImageStillStored(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	obj, err := s.Put("broken.jpg", strings.NewReader("not a jpeg"))
	require.NoError(t, err)
	assert.Empty(t, obj.ThumbnailURL)
}

// forgedPNG is a tiny valid PNG whose header claims w x h pixels.
func forgedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	b := pngBytes(t, 1, 1)
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestPutSkipsThumbnailForHugeDimensions(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	body := forgedPNG(t, 100000, 100000)
	cfg, err := png.DecodeConfig(bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, 100000, cfg.Width)

	obj, err := s.Put("bomb.png", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, obj.ThumbnailURL)
	assert.Equal(t, int64(len(body)), obj.Size)
}

func TestPutTooLarge(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, 4)
	require.NoError(t, err)

	_, err = s.Put("big.bin", strings.NewReader("12345"))
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPathRejectsTraversal(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	for _, key := range []string{"../etc/passwd", "..", ".", "a/b.png", "/abs.png"} {
		_, err := s.Path(key)
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err), key)
	}
	_, err = s.Path("missing.png")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
