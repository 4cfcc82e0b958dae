package render

import (
	"github.com/pkg/browser"
)

// Opener shows an exported document to the user.
type Opener func(path string) error

// OpenDocument opens path with the desktop's default viewer.
func OpenDocument(path string) error {
	return browser.OpenFile(path)
}
