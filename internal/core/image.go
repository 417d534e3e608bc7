// Grayscale image container shared by the interactive shell
package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// ErrInvalidImage is wrapped by ValidateImage failures.
var ErrInvalidImage = errors.New("invalid image")

const maxDimension = 16384

// ImageData holds the loaded original and the last enhanced raster
type ImageData struct {
	mu        sync.RWMutex
	original  gocv.Mat
	processed gocv.Mat
	hasImage  bool
	filepath  string
	metadata  ImageMetadata
}

// ImageMetadata contains image information
type ImageMetadata struct {
	Width  int
	Height int
	Format string
}

func NewImageData() *ImageData {
	return &ImageData{
		original:  gocv.NewMat(),
		processed: gocv.NewMat(),
	}
}

// SetOriginal stores a clone of mat and drops any previous result
func (img *ImageData) SetOriginal(mat gocv.Mat, path string) error {
	if err := ValidateImage(mat); err != nil {
		return err
	}

	img.mu.Lock()
	defer img.mu.Unlock()

	img.original.Close()
	img.processed.Close()

	img.original = mat.Clone()
	img.processed = gocv.NewMat()
	img.hasImage = true
	img.filepath = path
	img.metadata = ImageMetadata{
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Format: formatFromPath(path),
	}

	return nil
}

// SetProcessed stores a clone of the enhanced raster
func (img *ImageData) SetProcessed(mat gocv.Mat) error {
	img.mu.Lock()
	defer img.mu.Unlock()

	if !img.hasImage {
		return fmt.Errorf("no original image loaded")
	}
	if mat.Empty() {
		return fmt.Errorf("cannot set empty processed image")
	}
	if mat.Cols() != img.original.Cols() || mat.Rows() != img.original.Rows() {
		return fmt.Errorf("processed image is %dx%d, original is %dx%d",
			mat.Cols(), mat.Rows(), img.original.Cols(), img.original.Rows())
	}

	img.processed.Close()
	img.processed = mat.Clone()
	return nil
}

// GetOriginal returns a copy of the original image
func (img *ImageData) GetOriginal() gocv.Mat {
	img.mu.RLock()
	defer img.mu.RUnlock()

	if !img.hasImage {
		return gocv.NewMat()
	}
	return img.original.Clone()
}

// GetProcessed returns a copy of the enhanced image, empty if none yet
func (img *ImageData) GetProcessed() gocv.Mat {
	img.mu.RLock()
	defer img.mu.RUnlock()

	if img.processed.Empty() {
		return gocv.NewMat()
	}
	return img.processed.Clone()
}

func (img *ImageData) HasImage() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.hasImage
}

func (img *ImageData) HasProcessed() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return !img.processed.Empty()
}

func (img *ImageData) GetMetadata() ImageMetadata {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.metadata
}

func (img *ImageData) GetFilepath() string {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.filepath
}

// Close releases both rasters
func (img *ImageData) Close() {
	img.mu.Lock()
	defer img.mu.Unlock()

	img.original.Close()
	img.processed.Close()
	img.original = gocv.NewMat()
	img.processed = gocv.NewMat()
	img.hasImage = false
	img.filepath = ""
	img.metadata = ImageMetadata{}
}

func formatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

// ValidateImage checks that mat is a usable 8-bit grayscale raster
func ValidateImage(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("%w: image is empty", ErrInvalidImage)
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrInvalidImage, mat.Cols(), mat.Rows())
	}

	if mat.Channels() != 1 || mat.Type() != gocv.MatTypeCV8U {
		return fmt.Errorf("%w: expected 8-bit grayscale, got %d channels", ErrInvalidImage, mat.Channels())
	}

	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("%w: image too large %dx%d (max %d)", ErrInvalidImage, mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}
