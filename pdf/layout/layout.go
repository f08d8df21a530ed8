// Package layout places styled paragraphs onto pages and produces the draw
// command streams the document assembler serializes.
package layout

// PageSize represents page dimensions in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Standard page sizes in points
var (
	A4     = PageSize{595.28, 841.89}
	A5     = PageSize{419.53, 595.28}
	Letter = PageSize{612, 792}
)

// Margins represents the spacing around the content area.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// NewMargins creates new margins.
func NewMargins(top, right, bottom, left float64) Margins {
	return Margins{Top: top, Right: right, Bottom: bottom, Left: left}
}

// DefaultMargins are the report margins.
var DefaultMargins = Margins{Top: 72, Right: 56, Bottom: 64, Left: 56}

// ContentWidth returns the usable line width on a page.
func ContentWidth(page PageSize, margins Margins) float64 {
	return page.Width - margins.Left - margins.Right
}

// PageLayout combines a page size with its margins.
type PageLayout struct {
	Size    PageSize
	Margins Margins
}

// NewPageLayout creates a page layout.
func NewPageLayout(size PageSize, margins Margins) PageLayout {
	return PageLayout{Size: size, Margins: margins}
}

// ContentArea returns the width and height available to text.
func (l PageLayout) ContentArea() (width, height float64) {
	return l.Size.Width - l.Margins.Left - l.Margins.Right,
		l.Size.Height - l.Margins.Top - l.Margins.Bottom
}

// MediaBox returns the page rectangle as [0 0 width height].
func (l PageLayout) MediaBox() [4]float64 {
	return [4]float64{0, 0, l.Size.Width, l.Size.Height}
}
