package service

import (
	"fmt"
	"strings"

	"github.com/Jency96/Form-Management/model"
)

// Geometry holds the fixed page constants the engine lays out against.
// Units are millimeters, A4 portrait by default.
type Geometry struct {
	PageWidth   float64
	PageHeight  float64
	Margin      float64
	LabelColumn float64 // fixed width of the key column in key-value rows
}

// A4Geometry returns the production page geometry.
func A4Geometry() Geometry {
	return Geometry{
		PageWidth:   210,
		PageHeight:  297,
		Margin:      15,
		LabelColumn: 50,
	}
}

// ContentWidth is the printable width between the side margins.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// Bottom is the lowest cursor position that still fits on a page.
// Equality counts as fitting.
func (g Geometry) Bottom() float64 {
	return g.PageHeight - g.Margin
}

// Font sizes in points
const (
	titleSize   = 14
	headingSize = 12
	bodySize    = 11
)

// lineHeight converts a font size to the vertical advance per text line.
func lineHeight(size float64) float64 {
	return size * 0.6
}

// OpKind discriminates draw operations on a rendered page.
type OpKind int

const (
	OpText OpKind = iota
	OpRule
	OpLink
	OpImage
)

// DrawOp is one positioned operation on a page. X/Y is the text
// baseline for OpText/OpLink, the line start for OpRule and the top-left
// corner for OpImage.
type DrawOp struct {
	Kind  OpKind
	Text  string
	X, Y  float64
	X2    float64 // rule end
	W, H  float64 // image extent / link hit box
	Size  float64
	Bold  bool
	URL   string
	Image *model.Attachment
}

// Page is one fixed-size page of ordered draw operations.
type Page struct {
	Ops []DrawOp
}

// TextLines returns the text content of the page's text and link ops in
// emission order.
func (p *Page) TextLines() []string {
	var lines []string
	for _, op := range p.Ops {
		if op.Kind == OpText || op.Kind == OpLink {
			lines = append(lines, op.Text)
		}
	}
	return lines
}

// TextMeasurer reports rendered text widths for the active font. The
// PDF backend provides the real implementation; tests substitute a
// deterministic one.
type TextMeasurer interface {
	TextWidth(text string, size float64, bold bool) float64
}

// LayoutEngine converts a DocumentRecord into pages of positioned draw
// operations with automatic page-break insertion. It owns no mutable
// state across calls; each Layout pass runs on a fresh cursor.
type LayoutEngine struct {
	geom Geometry
	m    TextMeasurer
}

func NewLayoutEngine(geom Geometry, m TextMeasurer) *LayoutEngine {
	return &LayoutEngine{geom: geom, m: m}
}

// Layout produces the full page sequence for one document: the details
// page(s), then one page per present attachment.
func (e *LayoutEngine) Layout(rec *model.DocumentRecord) []Page {
	r := &layoutRun{geom: e.geom, m: e.m}
	r.newPage()

	r.centeredText("TASK DOCUMENT", titleSize, true)
	r.y += 8
	r.centeredText("Generated on: "+rec.GeneratedAt.Format("02/01/2006"), bodySize, false)
	r.y += 8
	r.rule()
	r.y += 8

	r.heading("TASK DETAILS")
	r.keyValue("Task Name:", rec.TaskName)
	r.keyValue("Task No:", rec.TaskNo)
	r.keyValue("Account No:", rec.AccountNo)
	r.keyValue("Company Name:", rec.CompanyName)
	r.keyValue("Transform No:", rec.TransformNo)
	r.keyValue("Date:", rec.DateText)

	if rec.Location != nil {
		locText := rec.Location.AddressText
		if locText == "" {
			locText = "Selected via map"
		}
		r.keyValue("Location:", locText)

		if rec.Location.HasCoordinates() {
			lat, lng := *rec.Location.Latitude, *rec.Location.Longitude
			r.keyValue("Coordinates:", fmt.Sprintf("Latitude: %.6f | Longitude: %.6f", lat, lng))
			r.linkRow("View on Google Maps", fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", lat, lng))
		} else {
			r.keyValue("Coordinates:", "")
		}
	}

	r.keyValue("Address:", rec.Address)
	r.keyValue("Description:", rec.Description)
	r.y += 8

	r.heading("ATTACHMENT SUMMARY")
	r.keyValue("Photo:", attachmentStatus(rec.Photo))
	r.keyValue("Drawing/Signature:", attachmentStatus(rec.Drawing))

	if rec.Photo.Present() {
		r.imagePage("ATTACHED PHOTO", rec.Photo)
	}
	if rec.Drawing.Present() {
		r.imagePage("DRAWING / SIGNATURE", rec.Drawing)
	}

	return r.pages
}

func attachmentStatus(att *model.Attachment) string {
	if att.Present() {
		return "Attached (see next page)"
	}
	return "Not attached"
}

// layoutRun carries the cursor state of a single layout pass.
type layoutRun struct {
	geom  Geometry
	m     TextMeasurer
	pages []Page
	y     float64
}

func (r *layoutRun) page() *Page {
	return &r.pages[len(r.pages)-1]
}

func (r *layoutRun) newPage() {
	r.pages = append(r.pages, Page{})
	r.y = r.geom.Margin + 5
}

// ensure breaks to a fresh page unless a block of the given projected
// height fits below the cursor. Equality fits.
func (r *layoutRun) ensure(height float64) {
	if r.y+height > r.geom.Bottom() {
		r.newPage()
	}
}

func (r *layoutRun) text(text string, x, size float64, bold bool) {
	r.page().Ops = append(r.page().Ops, DrawOp{
		Kind: OpText, Text: text, X: x, Y: r.y, Size: size, Bold: bold,
	})
}

func (r *layoutRun) centeredText(text string, size float64, bold bool) {
	w := r.m.TextWidth(text, size, bold)
	r.text(text, (r.geom.PageWidth-w)/2, size, bold)
}

func (r *layoutRun) rule() {
	r.page().Ops = append(r.page().Ops, DrawOp{
		Kind: OpRule, X: r.geom.Margin, Y: r.y, X2: r.geom.PageWidth - r.geom.Margin,
	})
	r.y += 4
}

func (r *layoutRun) heading(text string) {
	r.ensure(lineHeight(headingSize))
	r.text(text, r.geom.Margin, headingSize, true)
	r.y += lineHeight(headingSize) + 4
}

// keyValue emits one row: bold label in the left column, the value
// word-wrapped in the remaining width. The overflow pre-check runs per
// wrapped line, so a value straddling a page boundary continues at the
// top margin of a fresh page with no line lost.
func (r *layoutRun) keyValue(label, value string) {
	if strings.TrimSpace(value) == "" {
		value = model.NotProvided
	}
	valueX := r.geom.Margin + r.geom.LabelColumn
	width := r.geom.PageWidth - r.geom.Margin - valueX
	lines := r.wrap(value, width, bodySize)

	lh := lineHeight(bodySize)
	for i, line := range lines {
		r.ensure(lh)
		if i == 0 {
			r.text(label, r.geom.Margin, bodySize, true)
		}
		r.text(line, valueX, bodySize, false)
		r.y += lh
	}
}

// linkRow emits a hyperlink annotation in the value column.
func (r *layoutRun) linkRow(text, url string) {
	lh := lineHeight(bodySize)
	r.ensure(lh)
	x := r.geom.Margin + r.geom.LabelColumn
	r.page().Ops = append(r.page().Ops, DrawOp{
		Kind: OpLink, Text: text, URL: url,
		X: x, Y: r.y, W: r.m.TextWidth(text, bodySize, false), H: lh,
		Size: bodySize,
	})
	r.y += lh
}

// imagePage opens a fresh page holding a centered title and the image
// scaled to fit the printable area without upscaling.
func (r *layoutRun) imagePage(title string, att *model.Attachment) {
	r.newPage()
	r.y = 18
	r.centeredText(title, titleSize, true)

	maxW := r.geom.PageWidth - 2*r.geom.Margin
	maxH := r.geom.PageHeight - 50

	iw, ih := float64(att.Width), float64(att.Height)
	if iw <= 0 || ih <= 0 {
		return
	}
	scale := maxW / iw
	if s := maxH / ih; s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}
	w, h := iw*scale, ih*scale

	r.page().Ops = append(r.page().Ops, DrawOp{
		Kind:  OpImage,
		X:     r.geom.Margin + (maxW-w)/2,
		Y:     28,
		W:     w,
		H:     h,
		Image: att,
	})
}

// wrap splits text into lines no wider than width, breaking at word
// boundaries against the active measurer. Explicit newlines are
// honored; a single word wider than the column gets its own line.
func (r *layoutRun) wrap(text string, width, size float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, word := range words[1:] {
			cand := cur + " " + word
			if r.m.TextWidth(cand, size, false) <= width {
				cur = cand
			} else {
				lines = append(lines, cur)
				cur = word
			}
		}
		lines = append(lines, cur)
	}
	return lines
}
