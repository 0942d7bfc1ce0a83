package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format identifies an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ErrUnknownFormat is returned when the name does not match a supported format.
var ErrUnknownFormat = errors.New("unknown image format")

// jpegQuality is high enough that smooth gradients do not band visibly
const jpegQuality = 95

// ParseFormat maps user input (or a file extension) to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// SupportedFormats returns every format Encode understands.
func SupportedFormats() []Format {
	return []Format{FormatPNG, FormatJPEG, FormatBMP, FormatTIFF}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatTIFF:
		return ".tiff"
	default:
		return "." + string(f)
	}
}

// ContentType returns the MIME type for HTTP responses.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f, err)
	}
	return nil
}

// WriteFile encodes img to path, creating parent directories as needed.
// The image is written to a temp file first and renamed into place.
func WriteFile(path string, img image.Image, f Format) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tempPath := path + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := Encode(out, img, f); err != nil {
		out.Close()
		os.Remove(tempPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close output: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename output: %w", err)
	}
	return nil
}

// FormatFromPath guesses the format from a file extension, falling back to fallback.
func FormatFromPath(path string, fallback Format) Format {
	ext := filepath.Ext(path)
	if ext == "" {
		return fallback
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return fallback
	}
	return f
}
