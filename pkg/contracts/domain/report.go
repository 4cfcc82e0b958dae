package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Bundle value names referenced by report templates.
const (
	ValueFundName   = "fundname"
	ValueIntro      = "intro"
	ValueDisclaimer = "disclaimer"
	ValueFundReturn = "fund_return"
	ValueAsOfDate   = "asofdate"
	ValueHoldings   = "holdings"
	ValueSectors    = "sectors"
	ValueQRCode     = "qrcode"
	ValueHistory    = "history"
)

// TextStyle describes the font of a run of text. Zero values mean "inherit".
type TextStyle struct {
	Size   float64 `json:"size,omitempty"`
	Color  string  `json:"color,omitempty"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
}

// TextRun is a piece of text with a single style.
type TextRun struct {
	Text  string    `json:"text"`
	Style TextStyle `json:"style"`
}

// StyledText is a text block after the styling policy has been applied.
type StyledText struct {
	Runs []TextRun `json:"runs"`
}

// PlainText drops all styling.
func (s StyledText) PlainText() string {
	var b strings.Builder
	for _, r := range s.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// ArtifactFormat is the file format of a link artifact image.
type ArtifactFormat string

const (
	ArtifactSVG ArtifactFormat = "svg"
	ArtifactPNG ArtifactFormat = "png"
)

// LinkArtifact is a scannable code image encoding a fund's public URL.
type LinkArtifact struct {
	URL    string         `json:"url"`
	Path   string         `json:"path"`
	Format ArtifactFormat `json:"format"`
}

// ReportBundle is the complete named-value payload rendered for one fund.
type ReportBundle struct {
	FundName   FundID
	Intro      StyledText
	Disclaimer StyledText
	FundReturn decimal.Decimal
	AsOf       time.Time
	Holdings   Table
	Sectors    Table
	QRCode     LinkArtifact
	History    Table
}

// Values returns the bundle keyed by the names templates refer to.
func (b ReportBundle) Values() map[string]interface{} {
	return map[string]interface{}{
		ValueFundName:   string(b.FundName),
		ValueIntro:      b.Intro,
		ValueDisclaimer: b.Disclaimer,
		ValueFundReturn: b.FundReturn,
		ValueAsOfDate:   b.AsOf,
		ValueHoldings:   b.Holdings,
		ValueSectors:    b.Sectors,
		ValueQRCode:     b.QRCode,
		ValueHistory:    b.History,
	}
}

// ExportedDocument is the paginated factsheet of one fund.
type ExportedDocument struct {
	Fund      FundID `json:"fund"`
	Path      string `json:"path"`
	Workbook  string `json:"workbook"`
	Published bool   `json:"published"`
}
