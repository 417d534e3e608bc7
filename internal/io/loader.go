// Grayscale image loading and PNG persistence
package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	ErrImageNotFound      = errors.New("image not found")
	ErrUndecodable        = errors.New("image could not be decoded")
	ErrUnsupportedFormat  = errors.New("unsupported image format")
	ErrEmptyImage         = errors.New("image is empty")
	supportedInputFormats = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff"}
)

// ImageLoader handles image file operations
type ImageLoader struct {
	logger *logrus.Logger
}

func NewImageLoader(logger *logrus.Logger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadGrayscale decodes path as an 8-bit single channel raster. It never
// returns an empty Mat without an error.
func (il *ImageLoader) LoadGrayscale(path string) (gocv.Mat, error) {
	il.logger.WithField("filepath", path).Debug("Loading image as grayscale")

	if !IsSupportedFormat(path) {
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gocv.NewMat(), fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return gocv.NewMat(), fmt.Errorf("failed to stat image %s: %w", path, err)
	}
	if info.IsDir() {
		return gocv.NewMat(), fmt.Errorf("%w: %s is a directory", ErrImageNotFound, path)
	}

	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrUndecodable, path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"bytes":    info.Size(),
	}).Info("Grayscale image loaded successfully")

	return mat, nil
}

// SavePNG writes mat losslessly to path, which must end in .png.
func (il *ImageLoader) SavePNG(mat gocv.Mat, path string) error {
	il.logger.WithField("filepath", path).Debug("Saving image")

	if mat.Empty() {
		return fmt.Errorf("cannot save: %w", ErrEmptyImage)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return fmt.Errorf("%w: output must be .png, got %q", ErrUnsupportedFormat, ext)
	}

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to save image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Info("Image saved successfully")

	return nil
}

// EncodePNG encodes mat as PNG in memory.
func EncodePNG(mat gocv.Mat) ([]byte, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("cannot encode: %w", ErrEmptyImage)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory that Close releases.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// DecodeGrayscale decodes an in-memory image as an 8-bit single channel raster.
func DecodeGrayscale(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), fmt.Errorf("%w: no data", ErrUndecodable)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), ErrUndecodable
	}
	return mat, nil
}

// ValidateImageFile checks that path can be loaded without keeping the raster.
func (il *ImageLoader) ValidateImageFile(path string) error {
	mat, err := il.LoadGrayscale(path)
	if err != nil {
		return err
	}
	defer mat.Close()

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid image dimensions")
	}

	return nil
}

// IsSupportedFormat reports whether path has a decodable image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedInputFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// SupportedExtensions lists the accepted input extensions, dot included.
func SupportedExtensions() []string {
	return append([]string(nil), supportedInputFormats...)
}
