// Enhancement controls: action buttons, parameter sliders and status line
package gui

import (
	"fmt"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"psr-image-enhancer/internal/core"
)

// Status messages shown in the status line.
const (
	StatusReady    = "Ready"
	StatusWorking  = "Enhancing image..."
	StatusComplete = "Image enhancement complete"
	StatusNoImage  = "Please load an image first"
	StatusNoResult = "Please enhance the image first"
)

func statusLoaded(path string) string {
	return fmt.Sprintf("Image loaded: %s", path)
}

func statusSaved(path string) string {
	return fmt.Sprintf("Image saved: %s", path)
}

func formatGamma(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatSharpen(percent float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(percent)))
}

// gammaFromSlider snaps the slider value to the 0.01 grid.
func gammaFromSlider(v float64) float64 {
	return math.Round(v*100) / 100
}

func strengthFromSlider(percent float64) float64 {
	return math.Round(percent) / 100
}

// ControlPanel holds the buttons and sliders
type ControlPanel struct {
	loadButton    *widget.Button
	enhanceButton *widget.Button
	saveButton    *widget.Button

	gammaSlider   *widget.Slider
	gammaLabel    *widget.Label
	sharpenSlider *widget.Slider
	sharpenLabel  *widget.Label

	statusLabel *widget.Label
	container   *fyne.Container

	onLoad    func()
	onEnhance func()
	onSave    func()
}

func NewControlPanel(defaults core.Params) *ControlPanel {
	cp := &ControlPanel{}
	cp.initializeUI(defaults.Clamp())
	return cp
}

func (cp *ControlPanel) initializeUI(defaults core.Params) {
	cp.loadButton = widget.NewButtonWithIcon("Load Image", theme.FolderOpenIcon(), func() {
		if cp.onLoad != nil {
			cp.onLoad()
		}
	})
	cp.enhanceButton = widget.NewButtonWithIcon("Enhance Image", theme.MediaPlayIcon(), func() {
		if cp.onEnhance != nil {
			cp.onEnhance()
		}
	})
	cp.enhanceButton.Importance = widget.HighImportance
	cp.saveButton = widget.NewButtonWithIcon("Save Image", theme.DocumentSaveIcon(), func() {
		if cp.onSave != nil {
			cp.onSave()
		}
	})

	cp.gammaLabel = widget.NewLabel(formatGamma(defaults.Gamma))
	cp.gammaSlider = widget.NewSlider(core.MinGamma, core.MaxGamma)
	cp.gammaSlider.Step = 0.01
	cp.gammaSlider.SetValue(defaults.Gamma)
	cp.gammaSlider.OnChanged = func(value float64) {
		cp.gammaLabel.SetText(formatGamma(gammaFromSlider(value)))
	}

	percent := defaults.SharpenStrength * 100
	cp.sharpenLabel = widget.NewLabel(formatSharpen(percent))
	cp.sharpenSlider = widget.NewSlider(0, 100)
	cp.sharpenSlider.Step = 1
	cp.sharpenSlider.SetValue(math.Round(percent))
	cp.sharpenSlider.OnChanged = func(value float64) {
		cp.sharpenLabel.SetText(formatSharpen(value))
	}

	cp.statusLabel = widget.NewLabel(StatusReady)

	buttons := widget.NewCard("Image Controls", "",
		container.NewGridWithColumns(3, cp.loadButton, cp.enhanceButton, cp.saveButton))

	sliders := widget.NewCard("Enhancement Controls", "",
		container.NewVBox(
			container.NewBorder(nil, nil, widget.NewLabel("Gamma:"), cp.gammaLabel, cp.gammaSlider),
			container.NewBorder(nil, nil, widget.NewLabel("Sharpen:"), cp.sharpenLabel, cp.sharpenSlider),
		))

	cp.container = container.NewVBox(buttons, sliders)
}

func (cp *ControlPanel) SetCallbacks(onLoad, onEnhance, onSave func()) {
	cp.onLoad = onLoad
	cp.onEnhance = onEnhance
	cp.onSave = onSave
}

// Params reads the current slider positions.
func (cp *ControlPanel) Params() core.Params {
	return core.Params{
		Gamma:           gammaFromSlider(cp.gammaSlider.Value),
		SharpenStrength: strengthFromSlider(cp.sharpenSlider.Value),
	}
}

// SetBusy disables every control while an enhancement runs.
func (cp *ControlPanel) SetBusy(busy bool) {
	widgets := []fyne.Disableable{cp.loadButton, cp.enhanceButton, cp.saveButton, cp.gammaSlider, cp.sharpenSlider}
	for _, w := range widgets {
		if busy {
			w.Disable()
		} else {
			w.Enable()
		}
	}
}

func (cp *ControlPanel) SetStatus(message string) {
	cp.statusLabel.SetText(message)
}

func (cp *ControlPanel) Status() string {
	return cp.statusLabel.Text
}

func (cp *ControlPanel) StatusBar() fyne.CanvasObject {
	return container.NewHBox(cp.statusLabel)
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}
