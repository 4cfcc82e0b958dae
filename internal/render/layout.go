package render

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// layoutDescription places the layout page at its natural size behind the
// content.
const layoutDescription = "scalefactor:1 abs, rot:0"

// ApplyLayout stamps the first page of layoutPath underneath every page of
// pdfPath, in place.
func ApplyLayout(pdfPath, layoutPath string) error {
	wm, err := api.PDFWatermark(layoutPath+":1", layoutDescription, false, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("invalid page layout %s: %w", layoutPath, err)
	}
	if err := api.AddWatermarksFile(pdfPath, "", nil, wm, nil); err != nil {
		return fmt.Errorf("failed to apply page layout %s: %w", layoutPath, err)
	}
	return nil
}

// PageCount returns the number of pages of a PDF file.
func PageCount(pdfPath string) (int, error) {
	return api.PageCountFile(pdfPath)
}
