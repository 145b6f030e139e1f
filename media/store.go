// Package media is the object store chat images are uploaded to before a
// message references them.
package media

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"vault/apperr"
	"vault/utils"
)

const (
	URLPrefix      = "/files/"
	ThumbnailWidth = 200
	thumbSuffix    = "_thumb"
)

// maxThumbnailPixels caps the decoded size of an image, whatever its file
// size, before any pixel buffer is allocated.
const maxThumbnailPixels = 40_000_000

type Object struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Size         int64  `json:"size"`
}

type Store struct {
	dir     string
	maxSize int64
}

func NewStore(dir string, maxSize int64) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "resolve upload dir")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &Store{dir: abs, maxSize: maxSize}, nil
}

// Put stores r under a fresh key that keeps name's extension. Images also
// get a thumbnail; failing to make one does not fail the upload.
func (s *Store) Put(name string, r io.Reader) (*Object, error) {
	ext := strings.ToLower(filepath.Ext(name))
	key := utils.GenerateUUID() + ext
	path := filepath.Join(s.dir, key)

	out, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create object")
	}
	n, err := io.Copy(out, io.LimitReader(r, s.maxSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, errors.Wrap(err, "write object")
	}
	if n > s.maxSize {
		os.Remove(path)
		return nil, apperr.InvalidArg("file too large")
	}

	obj := &Object{Key: key, Name: name, URL: URLPrefix + key, Size: n}
	if isImage(ext) {
		thumbKey, err := s.thumbnail(key, ext)
		if err != nil {
			jww.WARN.Printf("[media] thumbnail for %s: %v", key, err)
		} else {
			obj.ThumbnailURL = URLPrefix + thumbKey
		}
	}
	return obj, nil
}

func isImage(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}

func (s *Store) thumbnail(key, ext string) (string, error) {
	in, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		return "", errors.Wrap(err, "open image")
	}
	defer in.Close()

	cfg, _, err := image.DecodeConfig(in)
	if err != nil {
		return "", errors.Wrap(err, "decode image header")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxThumbnailPixels {
		return "", errors.Errorf("image is %dx%d, too large to thumbnail", cfg.Width, cfg.Height)
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "rewind image")
	}

	var img image.Image
	switch ext {
	case ".png":
		img, err = png.Decode(in)
	case ".gif":
		img, err = gif.Decode(in)
	default:
		img, err = jpeg.Decode(in)
	}
	if err != nil {
		return "", errors.Wrap(err, "decode image")
	}

	thumb := img
	if img.Bounds().Dx() > ThumbnailWidth {
		thumb = resize.Resize(ThumbnailWidth, 0, img, resize.Lanczos3)
	}

	thumbExt := ".jpg"
	if ext == ".png" || ext == ".gif" {
		thumbExt = ".png"
	}
	thumbKey := strings.TrimSuffix(key, ext) + thumbSuffix + thumbExt
	out, err := os.Create(filepath.Join(s.dir, thumbKey))
	if err != nil {
		return "", errors.Wrap(err, "create thumbnail")
	}
	defer out.Close()

	if thumbExt == ".png" {
		err = png.Encode(out, thumb)
	} else {
		err = jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return "", errors.Wrap(err, "encode thumbnail")
	}
	return thumbKey, nil
}

// Path resolves a key to a file inside the upload dir, refusing anything
// that would escape it.
func (s *Store) Path(key string) (string, error) {
	clean := filepath.Clean(key)
	if clean != filepath.Base(clean) || clean == "." || clean == ".." || clean == string(filepath.Separator) {
		return "", apperr.InvalidArg("invalid filename")
	}
	path := filepath.Join(s.dir, clean)
	if !strings.HasPrefix(path, s.dir+string(filepath.Separator)) {
		return "", apperr.InvalidArg("invalid file path")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", apperr.NotFound("file not found")
		}
		return "", errors.Wrap(err, "stat object")
	}
	return path, nil
}
