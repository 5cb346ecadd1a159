package service

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpumodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/webp"

	"github.com/Jency96/Form-Management/model"
)

const pdfFont = "Helvetica"

// PDFService renders a DocumentRecord to PDF bytes by replaying the
// layout engine's draw operations through the PDF backend, then
// validating the result before it is offered for download.
type PDFService struct {
	geom Geometry
}

func NewPDFService(geom Geometry) *PDFService {
	return &PDFService{geom: geom}
}

// Render produces the final document. Returns the PDF bytes and the
// page count.
func (s *PDFService) Render(rec *model.DocumentRecord) ([]byte, int, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(s.geom.Margin, s.geom.Margin, s.geom.Margin)

	engine := NewLayoutEngine(s.geom, &pdfMeasurer{doc: doc})
	pages := engine.Layout(rec)

	images := 0
	for _, page := range pages {
		doc.AddPage()
		for _, op := range page.Ops {
			switch op.Kind {
			case OpText:
				setFont(doc, op.Size, op.Bold)
				doc.Text(op.X, op.Y, op.Text)
			case OpRule:
				doc.SetLineWidth(0.5)
				doc.Line(op.X, op.Y, op.X2, op.Y)
			case OpLink:
				setFont(doc, op.Size, op.Bold)
				doc.SetTextColor(0, 0, 255)
				doc.Text(op.X, op.Y, op.Text)
				doc.SetTextColor(0, 0, 0)
				doc.LinkString(op.X, op.Y-op.H, op.W, op.H, op.URL)
			case OpImage:
				images++
				if err := embedImage(doc, op, images); err != nil {
					// A broken image loses its page content, not the document.
					slog.Warn("failed to embed attachment image", "error", err)
					setFont(doc, bodySize, false)
					doc.Text(s.geom.Margin, op.Y, "[image could not be embedded]")
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("failed to produce PDF: %w", err)
	}

	if err := validatePDF(buf.Bytes()); err != nil {
		return nil, 0, fmt.Errorf("generated PDF failed validation: %w", err)
	}

	return buf.Bytes(), len(pages), nil
}

func setFont(doc *fpdf.Fpdf, size float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	doc.SetFont(pdfFont, style, size)
}

// embedImage registers and places one attachment. WEBP is re-encoded to
// PNG first; the backend embeds PNG and JPEG natively.
func embedImage(doc *fpdf.Fpdf, op DrawOp, seq int) error {
	data := op.Image.Data
	format := op.Image.Format

	if format == FormatWEBP {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to decode WEBP attachment: %w", err)
		}
		var out bytes.Buffer
		if err := png.Encode(&out, img); err != nil {
			return fmt.Errorf("failed to re-encode WEBP attachment: %w", err)
		}
		data = out.Bytes()
		format = FormatPNG
	}

	name := fmt.Sprintf("attachment-%d", seq)
	opts := fpdf.ImageOptions{ImageType: strings.ToUpper(format)}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	doc.ImageOptions(name, op.X, op.Y, op.W, op.H, false, opts, 0, "")
	if err := doc.Error(); err != nil {
		return err
	}
	return nil
}

// validatePDF runs the produced bytes through pdfcpu's relaxed
// validation so a structurally broken file is never handed out.
func validatePDF(data []byte) error {
	conf := pdfcpumodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfcpumodel.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("failed to read produced PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("produced PDF has no pages: %w", err)
	}
	return nil
}

// pdfMeasurer measures text with the backend's own core font metrics so
// wrapping decisions match what the backend will draw.
type pdfMeasurer struct {
	doc *fpdf.Fpdf
}

func (m *pdfMeasurer) TextWidth(text string, size float64, bold bool) float64 {
	setFont(m.doc, size, bold)
	return m.doc.GetStringWidth(text)
}

// DefaultFilename builds the auto-generated download name.
func DefaultFilename(taskNo string) string {
	taskNo = strings.TrimSpace(taskNo)
	if taskNo == "" {
		taskNo = "Unknown"
	}
	var b strings.Builder
	for _, r := range taskNo {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return fmt.Sprintf("Task-Document-%s.pdf", b.String())
}
