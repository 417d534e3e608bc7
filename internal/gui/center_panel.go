// Before/after image panes
package gui

import (
	"fmt"
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// previewMaxSide bounds the longest side of the rasters handed to fyne.
const previewMaxSide = 1024

// CenterPanel shows the original and enhanced images side by side
type CenterPanel struct {
	originalImage *canvas.Image
	enhancedImage *canvas.Image
	placeholder   image.Image
	container     *container.Split
}

func NewCenterPanel() *CenterPanel {
	panel := &CenterPanel{
		placeholder: createPlaceholderImage(),
	}

	panel.originalImage = panel.newPane()
	panel.enhancedImage = panel.newPane()

	panel.container = container.NewHSplit(
		widget.NewCard("Original", "", panel.originalImage),
		widget.NewCard("Enhanced", "", panel.enhancedImage),
	)
	panel.container.SetOffset(0.5)

	return panel
}

func (cp *CenterPanel) newPane() *canvas.Image {
	img := canvas.NewImageFromImage(cp.placeholder)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	img.SetMinSize(fyne.NewSize(400, 300))
	return img
}

// SetOriginal displays preview in the left pane and clears the right one
func (cp *CenterPanel) SetOriginal(preview image.Image) {
	cp.originalImage.Image = preview
	cp.originalImage.Refresh()
	cp.ClearEnhanced()
}

func (cp *CenterPanel) SetEnhanced(preview image.Image) {
	cp.enhancedImage.Image = preview
	cp.enhancedImage.Refresh()
}

func (cp *CenterPanel) ClearEnhanced() {
	cp.enhancedImage.Image = cp.placeholder
	cp.enhancedImage.Refresh()
}

func (cp *CenterPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func createPlaceholderImage() image.Image {
	return imaging.New(400, 300, color.NRGBA{R: 245, G: 245, B: 245, A: 255})
}

// toPreview converts mat to a Go image no larger than maxSide on either axis.
// It is safe to call off the UI goroutine.
func toPreview(mat gocv.Mat, maxSide int) (image.Image, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("cannot preview empty image")
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img, nil
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos), nil
}
