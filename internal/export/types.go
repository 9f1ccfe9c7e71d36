// Package export renders the wine list and the menu as printable HTML or PDF.
package export

import "errors"

// Format is the export output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// Kind selects which part of the catalog to render.
type Kind string

const (
	KindWineList Kind = "wines"
	KindMenu     Kind = "menu"
)

// Request contains parameters for an export operation.
type Request struct {
	Kind     Kind
	Format   Format
	Language string // "it", "en" or "fr"; defaults to "it"
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrUnsupportedFormat indicates a format other than html or pdf.
	ErrUnsupportedFormat = errors.New("export format unsupported")
	// ErrUnsupportedKind indicates a kind other than wines or menu.
	ErrUnsupportedKind = errors.New("export kind unsupported")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
