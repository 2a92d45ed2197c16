// Package display previews rendered frames in a fullscreen window.
package display

import (
	"image"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
)

// Display is a fullscreen window showing a single frame.
type Display struct {
	app fyne.App
	win fyne.Window
	img *canvas.Image
	log *slog.Logger
}

// New creates the window. It must be called from the main goroutine.
func New(log *slog.Logger) *Display {
	if log == nil {
		log = slog.Default()
	}
	a := app.New()
	// TODO: Make a custom theme since DarkTheme is deprecated.
	a.Settings().SetTheme(theme.DarkTheme())
	a.Driver().SetDisableScreenBlanking(true)
	win := a.NewWindow("immich")
	win.SetFullScreen(true)

	// Frames are already sized for the device.
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	win.SetContent(img)

	return &Display{app: a, win: win, img: img, log: log}
}

// Show replaces the displayed frame. Safe to call from any goroutine.
func (d *Display) Show(frame image.Image) {
	fyne.Do(func() {
		size := frame.Bounds().Size()
		d.log.Info("displaying frame", "width", size.X, "height", size.Y)
		d.img.Image = frame
		d.img.Refresh()
	})
}

// ShowAndRun blocks until the window is closed.
func (d *Display) ShowAndRun() {
	d.win.ShowAndRun()
}

// Quit closes the window and makes [Display.ShowAndRun] return. Safe to call
// from any goroutine.
func (d *Display) Quit() {
	fyne.Do(d.app.Quit)
}
