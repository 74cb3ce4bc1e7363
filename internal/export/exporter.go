// Package export produces downloadable still images: the current video
// frame at native resolution with the overlay composited on top.
package export

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"github.com/psarathy/drishti/internal/overlay"
	"github.com/psarathy/drishti/internal/store"
)

// ErrNotReady is returned when an export is requested before the video
// and overlay surface are initialized. Callers log it and skip the
// export; no file is produced.
var ErrNotReady = errors.New("export preconditions not met")

// Exporter writes composited frames to the export directory and records
// them in the store.
type Exporter struct {
	dir   string
	store *store.Store
}

// New creates an Exporter writing into dir. store may be nil, in which
// case exports are written to disk but not recorded.
func New(dir string, st *store.Store) *Exporter {
	return &Exporter{dir: dir, store: st}
}

// Request carries everything needed to composite one export. Frame is
// the native-resolution video frame and stays owned by the caller.
type Request struct {
	Frame     *gocv.Mat
	Overlay   *overlay.Surface
	Detail    *overlay.Detail
	Mapper    *overlay.Mapper
	SessionID string
	Position  float64

	// Snapshot selects the simple capture variant: frame plus overlay
	// only, no joint info box, athlete-frame filename prefix.
	Snapshot bool
}

// Result describes a written export.
type Result struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Data     []byte `json:"-"`
}

// Export composites the frame, the overlay scaled up to native
// resolution, and (unless Snapshot) the active joint info box redrawn
// at native coordinates. The result is PNG-encoded, written to the
// export directory and returned for download.
func (e *Exporter) Export(req Request) (*Result, error) {
	if req.Frame == nil || req.Frame.Empty() {
		return nil, fmt.Errorf("%w: no video frame available", ErrNotReady)
	}
	if req.Overlay == nil || req.Overlay.Empty() {
		return nil, fmt.Errorf("%w: overlay surface not initialized", ErrNotReady)
	}

	out := req.Frame.Clone()
	defer out.Close()

	if err := req.Overlay.CompositeOntoScaled(&out); err != nil {
		return nil, fmt.Errorf("failed to composite overlay: %w", err)
	}

	if !req.Snapshot && req.Detail != nil && req.Mapper != nil {
		e.drawDetail(&out, req.Detail, req.Mapper)
	}

	buf, err := gocv.IMEncode(".png", out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	buf.Close()

	name := filename(req.Snapshot)
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	result := &Result{
		Path:     path,
		Filename: name,
		Width:    out.Cols(),
		Height:   out.Rows(),
		Data:     data,
	}

	if e.store != nil && req.SessionID != "" {
		record := &store.Export{
			SessionID: req.SessionID,
			Path:      path,
			Position:  req.Position,
			Width:     result.Width,
			Height:    result.Height,
		}
		if !req.Snapshot && req.Detail != nil {
			record.Joint = req.Detail.Name
			record.Angle = req.Detail.Angle
		}
		if err := e.store.Exports().Create(record); err != nil {
			log.Printf("Failed to record export %s: %v", name, err)
		}
	}

	return result, nil
}

// drawDetail redraws the joint info box at native resolution so the
// text stays crisp instead of being upscaled with the rest of the
// overlay. The detail position is display-space and is projected back
// to native coordinates.
func (e *Exporter) drawDetail(out *gocv.Mat, d *overlay.Detail, m *overlay.Mapper) {
	nd := *d
	nd.X, nd.Y = m.ToNative(d.X, d.Y)

	box := overlay.NewSurface(out.Cols(), out.Rows())
	defer box.Close()
	overlay.DrawInfoBox(box, &nd)
	if err := box.CompositeOnto(out); err != nil {
		log.Printf("Failed to draw export info box: %v", err)
	}
}

func filename(snapshot bool) string {
	ms := time.Now().UnixMilli()
	if snapshot {
		return fmt.Sprintf("athlete-frame-%d.png", ms)
	}
	return fmt.Sprintf("frame_%d.png", ms)
}
