// Main application window
package gui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"psr-image-enhancer/internal/core"
	"psr-image-enhancer/internal/io"
)

// Application wires the window, controls and enhancement pipeline together
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger

	// Core components
	imageData *core.ImageData
	enhancer  *core.Enhancer
	loader    *io.ImageLoader

	// GUI components
	controls    *ControlPanel
	centerPanel *CenterPanel
	menuHandler *MenuHandler

	// mu guards cancel and generation. generation changes whenever the
	// original is replaced, so results of an older run are dropped.
	mu         sync.Mutex
	cancel     context.CancelFunc
	generation uint64
}

func NewApplication(app fyne.App, title string, logger *logrus.Logger, enhancer *core.Enhancer, defaults core.Params) *Application {
	window := app.NewWindow(title)
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	a := &Application{
		app:       app,
		window:    window,
		logger:    logger,
		imageData: core.NewImageData(),
		enhancer:  enhancer,
		loader:    io.NewImageLoader(logger),
	}

	a.controls = NewControlPanel(defaults)
	a.centerPanel = NewCenterPanel()
	a.menuHandler = NewMenuHandler(window, title, logger)

	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *Application) setupLayout() {
	content := container.NewBorder(
		a.controls.GetContainer(),
		a.controls.StatusBar(),
		nil,
		nil,
		container.NewPadded(a.centerPanel.GetContainer()),
	)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(content)
}

func (a *Application) setupCallbacks() {
	a.controls.SetCallbacks(a.menuHandler.OpenImage, a.Enhance, a.requestSave)

	a.menuHandler.SetCallbacks(
		func(path string) {
			if err := a.LoadImage(path); err != nil {
				a.showError("Failed to Load Image", err)
			}
		},
		func(path string) {
			if err := a.SaveEnhanced(path); err != nil {
				a.showError("Failed to Save Image", err)
			}
		},
	)
}

// LoadImage reads path as grayscale and shows it in the original pane.
// Must be called on the UI goroutine.
func (a *Application) LoadImage(path string) error {
	mat, err := a.loader.LoadGrayscale(path)
	if err != nil {
		return err
	}
	defer mat.Close()

	preview, err := toPreview(mat, previewMaxSide)
	if err != nil {
		return err
	}

	if a.invalidateRun() {
		a.setBusy(false)
	}
	if err := a.imageData.SetOriginal(mat, path); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}

	a.centerPanel.SetOriginal(preview)
	a.controls.SetStatus(statusLoaded(path))

	a.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Info("Image loaded successfully")
	return nil
}

// Enhance runs the pipeline on the loaded image in the background. Controls
// stay disabled until it finishes.
func (a *Application) Enhance() {
	if !a.imageData.HasImage() {
		a.controls.SetStatus(StatusNoImage)
		return
	}

	params := a.controls.Params()
	src := a.imageData.GetOriginal()
	ctx, gen := a.startRun()

	a.setBusy(true)
	a.controls.SetStatus(StatusWorking)

	go func() {
		defer src.Close()

		result, err := a.enhancer.Enhance(ctx, src, params)
		if err != nil {
			fyne.Do(func() {
				if !a.isCurrent(gen) {
					return
				}
				a.finishRun(gen)
				if errors.Is(err, context.Canceled) {
					a.controls.SetStatus(StatusReady)
					return
				}
				a.showError("Enhancement Failed", err)
			})
			return
		}
		defer result.Close()

		stored, err := a.storeResult(gen, result.Image)
		if err != nil {
			fyne.Do(func() {
				if !a.isCurrent(gen) {
					return
				}
				a.finishRun(gen)
				a.showError("Enhancement Failed", err)
			})
			return
		}
		if !stored {
			a.logger.WithField("run", gen).Debug("Dropping result of a replaced image")
			return
		}

		preview, err := toPreview(result.Image, previewMaxSide)
		fyne.Do(func() {
			if !a.isCurrent(gen) {
				return
			}
			a.finishRun(gen)
			if err != nil {
				a.showError("Preview Failed", err)
				return
			}
			a.centerPanel.SetEnhanced(preview)
			a.controls.SetStatus(StatusComplete)
		})
	}()
}

// startRun cancels any run in flight and tags a new one.
func (a *Application) startRun() (context.Context, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.generation++
	return ctx, a.generation
}

// invalidateRun cancels the run in flight, if any, and makes its result
// stale. It reports whether a run was cancelled.
func (a *Application) invalidateRun() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.generation++
	if a.cancel == nil {
		return false
	}
	a.cancel()
	a.cancel = nil
	return true
}

// finishRun releases the context of run gen and re-enables the controls.
func (a *Application) finishRun(gen uint64) {
	a.mu.Lock()
	if gen == a.generation && a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()

	a.setBusy(false)
}

func (a *Application) isCurrent(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return gen == a.generation
}

// storeResult keeps mat as the processed image only while gen is still the
// current run.
func (a *Application) storeResult(gen uint64, mat gocv.Mat) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation {
		return false, nil
	}
	if err := a.imageData.SetProcessed(mat); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Application) setBusy(busy bool) {
	a.controls.SetBusy(busy)
	a.menuHandler.SetBusy(busy)
}

func (a *Application) requestSave() {
	if !a.imageData.HasProcessed() {
		a.controls.SetStatus(StatusNoResult)
		return
	}
	a.menuHandler.SaveImage()
}

// SaveEnhanced writes the last enhanced image as PNG.
func (a *Application) SaveEnhanced(path string) error {
	processed := a.imageData.GetProcessed()
	defer processed.Close()

	if processed.Empty() {
		return fmt.Errorf("no enhanced image to save")
	}
	if err := a.loader.SavePNG(processed, path); err != nil {
		return err
	}

	a.controls.SetStatus(statusSaved(path))
	return nil
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")

	a.invalidateRun()
	a.imageData.Close()
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.controls.SetStatus(fmt.Sprintf("Error: %s", err.Error()))
}
