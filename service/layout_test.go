package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Jency96/Form-Management/model"
)

// fixedMeasurer measures every character at a constant width so wrapping
// decisions are deterministic.
type fixedMeasurer struct {
	charWidth float64
}

func (m *fixedMeasurer) TextWidth(text string, size float64, bold bool) float64 {
	return float64(len(text)) * m.charWidth
}

func newTestEngine() *LayoutEngine {
	return NewLayoutEngine(A4Geometry(), &fixedMeasurer{charWidth: 2})
}

func testRecord() *model.DocumentRecord {
	return &model.DocumentRecord{
		TaskName:    "Pole replacement",
		TaskNo:      "TSK-42",
		GeneratedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func allTextLines(pages []Page) []string {
	var lines []string
	for i := range pages {
		lines = append(lines, pages[i].TextLines()...)
	}
	return lines
}

func containsLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

func TestLayoutSinglePageWithoutAttachments(t *testing.T) {
	pages := newTestEngine().Layout(testRecord())

	if len(pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(pages))
	}

	lines := pages[0].TextLines()
	if !containsLine(lines, "TASK DOCUMENT") {
		t.Error("Expected title line")
	}
	if !containsLine(lines, "Generated on: 30/08/2026") {
		t.Error("Expected generation date line")
	}
	if !containsLine(lines, "Not attached") {
		t.Error("Expected attachment summary to report Not attached")
	}
}

func TestLayoutOnePagePerAttachment(t *testing.T) {
	rec := testRecord()
	rec.Photo = &model.Attachment{Format: FormatPNG, Data: []byte{1}, Width: 100, Height: 50}
	rec.Drawing = &model.Attachment{Format: FormatPNG, Data: []byte{1}, Width: 200, Height: 80}

	pages := newTestEngine().Layout(rec)
	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}

	if !containsLine(pages[1].TextLines(), "ATTACHED PHOTO") {
		t.Error("Expected photo page title on page 2")
	}
	if !containsLine(pages[2].TextLines(), "DRAWING / SIGNATURE") {
		t.Error("Expected drawing page title on page 3")
	}

	lines := pages[0].TextLines()
	if !containsLine(lines, "Attached (see next page)") {
		t.Error("Expected attachment summary to reference the image pages")
	}
}

func TestLayoutPageBreakLosesNoLines(t *testing.T) {
	rec := testRecord()
	var parts []string
	for i := 0; i < 80; i++ {
		parts = append(parts, fmt.Sprintf("line-%02d", i))
	}
	rec.Description = strings.Join(parts, "\n")

	pages := newTestEngine().Layout(rec)
	if len(pages) < 2 {
		t.Fatalf("Expected the description to overflow onto a second page, got %d page(s)", len(pages))
	}

	lines := allTextLines(pages)
	for _, want := range parts {
		found := 0
		for _, l := range lines {
			if l == want {
				found++
			}
		}
		if found != 1 {
			t.Errorf("Expected %q exactly once across all pages, found %d times", want, found)
		}
	}
}

func TestLayoutCoordinateFormatting(t *testing.T) {
	rec := testRecord()
	lat, lng := 12.3456789, -98.76543211
	rec.Location = &model.Location{AddressText: "Main Rd", Latitude: &lat, Longitude: &lng}

	pages := newTestEngine().Layout(rec)
	lines := pages[0].TextLines()

	if !containsLine(lines, "Latitude: 12.345679 | Longitude: -98.765432") {
		t.Errorf("Expected six-decimal coordinate line, got %v", lines)
	}

	var link *DrawOp
	for i, op := range pages[0].Ops {
		if op.Kind == OpLink {
			link = &pages[0].Ops[i]
		}
	}
	if link == nil {
		t.Fatal("Expected a map link op")
	}
	if link.URL != "https://www.google.com/maps?q=12.345679,-98.765432" {
		t.Errorf("Unexpected map URL: %s", link.URL)
	}
	if link.Text != "View on Google Maps" {
		t.Errorf("Unexpected link text: %s", link.Text)
	}
}

func TestLayoutLocationWithoutCoordinates(t *testing.T) {
	rec := testRecord()
	rec.Location = &model.Location{AddressText: "Main Rd"}

	lines := newTestEngine().Layout(rec)[0].TextLines()
	if !containsLine(lines, model.NotProvided) {
		t.Error("Expected coordinates row to fall back to Not provided")
	}
	if containsLine(lines, "View on Google Maps") {
		t.Error("Expected no map link without coordinates")
	}
}

func TestLayoutEmptyFieldsShowNotProvided(t *testing.T) {
	lines := newTestEngine().Layout(testRecord())[0].TextLines()

	n := 0
	for _, l := range lines {
		if l == model.NotProvided {
			n++
		}
	}
	// Account No, Company Name, Transform No, Date, Address, Description
	if n != 6 {
		t.Errorf("Expected 6 Not provided rows, got %d", n)
	}
}

func TestLayoutImageScaling(t *testing.T) {
	geom := A4Geometry()
	maxW := geom.PageWidth - 2*geom.Margin
	maxH := geom.PageHeight - 50

	cases := []struct {
		name         string
		w, h         int
		wantW, wantH float64
	}{
		{"small image keeps its size", 100, 50, 100, 50},
		{"wide image scales to content width", 3600, 1000, maxW, 50},
		{"tall image scales to content height", 100, 4940, 5, maxH},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := testRecord()
			rec.Photo = &model.Attachment{Format: FormatPNG, Data: []byte{1}, Width: c.w, Height: c.h}

			pages := newTestEngine().Layout(rec)
			var img *DrawOp
			for i, op := range pages[1].Ops {
				if op.Kind == OpImage {
					img = &pages[1].Ops[i]
				}
			}
			if img == nil {
				t.Fatal("Expected an image op on the attachment page")
			}
			if img.W != c.wantW || img.H != c.wantH {
				t.Errorf("Expected %gx%g, got %gx%g", c.wantW, c.wantH, img.W, img.H)
			}
			// Centered horizontally within the margins.
			wantX := geom.Margin + (maxW-img.W)/2
			if img.X != wantX {
				t.Errorf("Expected X %g, got %g", wantX, img.X)
			}
		})
	}
}

func TestLayoutOpsStayWithinPage(t *testing.T) {
	rec := testRecord()
	rec.Description = strings.Repeat("word ", 600)

	pages := newTestEngine().Layout(rec)
	geom := A4Geometry()
	for p := range pages {
		for _, op := range pages[p].Ops {
			if op.Kind == OpText || op.Kind == OpLink {
				if op.Y > geom.Bottom() {
					t.Errorf("Page %d: text op at y=%g below bottom %g", p+1, op.Y, geom.Bottom())
				}
			}
		}
	}
}
