// Package pdf renders reports of titled text blocks into multi-page PDF
// documents.
package pdf

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-pdf/fpdf"
)

const (
	utf8Family = "NotedxText"
	coreFamily = "Helvetica"

	lineHeight = 10.0
)

type Exporter struct {
	fontPath string
	logger   *slog.Logger
}

// NewExporter returns an exporter using the TTF at fontPath. An empty path
// or a missing file falls back to the built-in Helvetica font.
func NewExporter(fontPath string) *Exporter {
	return &Exporter{fontPath: fontPath, logger: slog.Default()}
}

func (e *Exporter) WithLogger(l *slog.Logger) *Exporter {
	e.logger = l
	return e
}

func (e *Exporter) Write(w io.Writer, r *Report) error {
	doc := e.build(r)
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func (e *Exporter) WriteFile(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pdf %q: %w", path, err)
	}

	if err := e.Write(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func (e *Exporter) build(r *Report) *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(r.Heading, true)
	doc.SetCreator("notedx", true)

	family, tr := e.setupFont(doc)

	doc.SetHeaderFunc(func() {
		doc.SetFont(family, "B", 12)
		doc.CellFormat(0, lineHeight, tr(r.Heading), "", 1, "C", false, 0, "")
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(family, "I", 10)
		doc.CellFormat(0, lineHeight, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()
	for _, entry := range r.Entries {
		doc.SetFont(family, "B", 12)
		doc.SetFillColor(200, 220, 255)
		doc.CellFormat(0, lineHeight, tr(entry.Title), "", 1, "L", true, 0, "")

		doc.SetFont(family, "", 10)
		doc.MultiCell(0, lineHeight, tr(entry.Body), "", "L", false)
	}
	return doc
}

// setupFont registers the configured TTF for every style used by the layout.
// It returns the family to select and a translator for the body text.
func (e *Exporter) setupFont(doc *fpdf.Fpdf) (string, func(string) string) {
	if e.fontPath != "" {
		if _, err := os.Stat(e.fontPath); err == nil {
			for _, style := range []string{"", "B", "I"} {
				doc.AddUTF8Font(utf8Family, style, e.fontPath)
			}
			if !doc.Err() {
				return utf8Family, func(s string) string { return s }
			}
			e.logger.Error("Failed to load font, using Helvetica", "font", e.fontPath, "error", doc.Error())
			doc.ClearError()
		} else {
			e.logger.Error("Font not found, using Helvetica", "font", e.fontPath, "error", err)
		}
	}
	return coreFamily, doc.UnicodeTranslatorFromDescriptor("")
}
