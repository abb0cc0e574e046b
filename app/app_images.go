package app

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"net/http"

	"golang.design/x/clipboard"

	"gridview/app/imagestats"
)

// Maximum clipboard size in bytes (10MB) - helps avoid X11 BadLength errors on Linux
const maxClipboardSize = 10 * 1024 * 1024

// safeClipboardWrite attempts to write data to clipboard with panic recovery.
func safeClipboardWrite(format clipboard.Format, data []byte) (err error) {
	if len(data) > maxClipboardSize {
		return fmt.Errorf("image too large for clipboard (%d bytes, max %d bytes)", len(data), maxClipboardSize)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard write failed: %v", r)
		}
	}()

	clipboard.Write(format, data)
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func dataURL(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

// GetThumbnail returns the unit's crop scaled for the grid, as a PNG data
// URL.
func (a *App) GetThumbnail(id string) (string, error) {
	_, unit, err := a.unitByUUID(id)
	if err != nil {
		return "", err
	}
	img, err := unit.Thumbnail(a.ctx)
	if err != nil {
		return "", err
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	return dataURL(data), nil
}

// GetCropImage returns the unit's full-resolution crop as a PNG data URL,
// for the zoomed single-image view.
func (a *App) GetCropImage(id string) (string, error) {
	_, unit, err := a.unitByUUID(id)
	if err != nil {
		return "", err
	}
	img, err := unit.CropImage(a.ctx)
	if err != nil {
		return "", err
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	return dataURL(data), nil
}

// GetFullFrame returns the unit's entire source frame: the still image for
// image-sourced units, or a frame capture from the video service for
// video-sourced ones.
func (a *App) GetFullFrame(id string) (string, error) {
	_, unit, err := a.unitByUUID(id)
	if err != nil {
		return "", err
	}

	if !unit.VideoSourced() {
		img, err := unit.FullImage(a.ctx)
		if err != nil {
			return "", err
		}
		data, err := encodePNG(img)
		if err != nil {
			return "", err
		}
		return dataURL(data), nil
	}

	session, err := a.currentSession()
	if err != nil {
		return "", err
	}
	if session.Beholder == nil {
		return "", fmt.Errorf("no frame capture service available")
	}
	data, err := session.Beholder.Capture(a.ctx, unit.SourceURL, *unit.ElapsedMillis)
	if err != nil {
		return "", fmt.Errorf("frame capture failed: %w", err)
	}
	// Beholder does not promise a format; detect it for the data URL
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// CopyUnitImage puts the unit's crop on the system clipboard as a PNG.
func (a *App) CopyUnitImage(id string) error {
	_, unit, err := a.unitByUUID(id)
	if err != nil {
		return err
	}

	// Lazy init clipboard
	a.clipOnce.Do(func() {
		if err := clipboard.Init(); err == nil {
			a.clipOK = true
		} else {
			a.clipOK = false
			a.Log("error", fmt.Sprintf("Clipboard init failed: %v", err))
		}
	})
	if !a.clipOK {
		return fmt.Errorf("clipboard not available")
	}

	img, err := unit.CropImage(a.ctx)
	if err != nil {
		return err
	}
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	return safeClipboardWrite(clipboard.FmtImage, data)
}

// GetUnitStats computes (or returns cached) pixel statistics for one unit.
// The pixel-statistic sorts only see units whose stats have been computed.
func (a *App) GetUnitStats(id string) (*imagestats.Stats, error) {
	_, unit, err := a.unitByUUID(id)
	if err != nil {
		return nil, err
	}
	return unit.Stats(a.ctx)
}

// ComputeAllStats computes pixel statistics for every unit so the
// pixel-statistic sorts have complete data. Slow on large mosaics; the
// frontend calls it on demand.
func (a *App) ComputeAllStats() error {
	index, err := a.currentIndex()
	if err != nil {
		return err
	}
	for _, unit := range index.Units() {
		if _, err := unit.Stats(a.ctx); err != nil {
			a.Log("warning", fmt.Sprintf("Stats failed for %s: %v", unit.UUID(), err))
		}
	}
	return nil
}
