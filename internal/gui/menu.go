// File dialogs and main menu
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"psr-image-enhancer/internal/io"
)

const defaultSaveName = "enhanced_psr_image.png"

// MenuHandler owns the file dialogs and the main menu
type MenuHandler struct {
	window fyne.Window
	title  string
	logger *logrus.Logger

	mainMenu *fyne.MainMenu
	loadItem *fyne.MenuItem
	saveItem *fyne.MenuItem

	onOpen func(path string)
	onSave func(path string)
}

func NewMenuHandler(window fyne.Window, title string, logger *logrus.Logger) *MenuHandler {
	mh := &MenuHandler{
		window: window,
		title:  title,
		logger: logger,
	}
	mh.loadItem = fyne.NewMenuItem("Load Image...", mh.OpenImage)
	mh.saveItem = fyne.NewMenuItem("Save Image...", mh.SaveImage)
	return mh
}

func (mh *MenuHandler) SetCallbacks(onOpen, onSave func(string)) {
	mh.onOpen = onOpen
	mh.onSave = onSave
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	if mh.mainMenu != nil {
		return mh.mainMenu
	}

	fileMenu := fyne.NewMenu("File", mh.loadItem, mh.saveItem)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	mh.mainMenu = fyne.NewMainMenu(fileMenu, helpMenu)
	return mh.mainMenu
}

// SetBusy greys out the file items while an enhancement runs
func (mh *MenuHandler) SetBusy(busy bool) {
	mh.loadItem.Disabled = busy
	mh.saveItem.Disabled = busy
	if mh.mainMenu != nil {
		mh.mainMenu.Refresh()
	}
}

// OpenImage shows a file picker filtered to loadable image types
func (mh *MenuHandler) OpenImage() {
	mh.logger.Debug("Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		if mh.onOpen != nil {
			mh.onOpen(path)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

// SaveImage shows a save picker for the enhanced PNG
func (mh *MenuHandler) SaveImage() {
	mh.logger.Debug("Opening file dialog for image saving")

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return
		}
		// gocv writes by path; the dialog's handle is only used for the URI.
		path := writer.URI().Path()
		writer.Close()

		if mh.onSave != nil {
			mh.onSave(path)
		}
	}, mh.window)

	fileDialog.SetFileName(defaultSaveName)
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel(mh.title),
		widget.NewSeparator(),
		widget.NewLabel("Denoise, CLAHE, gamma and sharpening for"),
		widget.NewLabel("permanently shadowed region imagery."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6 and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(360, 220))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}
