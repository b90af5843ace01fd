package converter

import (
	"context"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	"eventcertificates/internal/domain"
)

type nativeConverter struct{}

// NewNativeConverter returns a DocumentConverter that draws the SVG with gofpdf, without an external process.
// Only top level <path> elements are drawn and width/height must be unitless numbers,
// which suits line-art certificates; templates with text need the Inkscape converter.
func NewNativeConverter() domain.DocumentConverter {
	return &nativeConverter{}
}

func (c *nativeConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sig, err := gofpdf.SVGBasicFileParse(inputPath)
	if err != nil {
		return fmt.Errorf("parse svg: %w", err)
	}
	if sig.Wd <= 0 || sig.Ht <= 0 {
		return fmt.Errorf("svg %s has no page size", inputPath)
	}

	// The page is exactly the SVG canvas, one SVG unit per point.
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: sig.Wd, Ht: sig.Ht},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetLineWidth(1)
	pdf.SVGBasicWrite(&sig, 1)

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
