package handler

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jency96/Form-Management/middleware"
	"github.com/Jency96/Form-Management/model"
	"github.com/Jency96/Form-Management/service"
)

// DocumentHandler drives the preview and generate/download flow.
type DocumentHandler struct {
	builder *service.DocumentBuilder
	pdf     *service.PDFService
	photos  *service.PhotoStore
	archive *service.ArchiveService // nil when archiving is disabled

	// generating serializes PDF production: a second request while one
	// is in flight is rejected, not interleaved.
	generating sync.Mutex
}

func NewDocumentHandler(builder *service.DocumentBuilder, pdf *service.PDFService, photos *service.PhotoStore, archive *service.ArchiveService) *DocumentHandler {
	return &DocumentHandler{
		builder: builder,
		pdf:     pdf,
		photos:  photos,
		archive: archive,
	}
}

// GenerateRequest is one generate or preview submission.
type GenerateRequest struct {
	service.FormSnapshot
	Filename string `json:"filename,omitempty"`
}

// Generate renders the submitted form to a PDF and returns it as a
// download.
func (h *DocumentHandler) Generate(c *gin.Context) {
	if !h.generating.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "A document generation is already in progress"})
		return
	}
	defer h.generating.Unlock()

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	requestID := middleware.GetRequestID(c)
	slog.Info("document generation started", "request_id", requestID, "task_no", req.TaskNo)

	record := h.builder.Build(&req.FormSnapshot)
	pdfBytes, pages, err := h.pdf.Render(record)
	if err != nil {
		slog.Error("document generation failed", "request_id", requestID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating PDF. Please try again."})
		return
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = service.DefaultFilename(record.TaskNo)
	} else if !strings.HasSuffix(filename, ".pdf") {
		filename += ".pdf"
	}

	if h.archive != nil {
		// Best effort; the download never waits on the archive.
		go h.archiveDocument(record, filename, pdfBytes)
	}

	slog.Info("document download started",
		"request_id", requestID, "filename", filename, "pages", pages, "bytes", len(pdfBytes))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Page-Count", fmt.Sprintf("%d", pages))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)

	slog.Info("document download complete", "request_id", requestID, "filename", filename)
}

func (h *DocumentHandler) archiveDocument(record *model.DocumentRecord, filename string, pdfBytes []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	object, err := h.archive.StoreDocument(ctx, record.TaskNo, filename, pdfBytes)
	if err != nil {
		slog.Warn("failed to archive generated document", "task_no", record.TaskNo, "error", err)
		return
	}

	if record.Photo.Present() {
		if _, err := h.archive.StorePhoto(ctx, record.TaskNo, record.Photo.Format, record.Photo.Data); err != nil {
			slog.Warn("failed to archive photo", "task_no", record.TaskNo, "error", err)
		}
	}

	url, err := h.archive.GetPresignedURL(ctx, object)
	if err != nil {
		slog.Info("document archived", "object", object)
		return
	}
	slog.Info("document archived", "object", object, "url", url)
}

// Preview returns the assembled document as an HTML fragment.
func (h *DocumentHandler) Preview(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	record := h.builder.Build(&req.FormSnapshot)

	photoSrc := req.PhotoDataURL
	if service.IsBlankDataURL(photoSrc) {
		photoSrc = h.photos.Latest()
	}
	drawingSrc := ""
	if req.DrawingHasContent && !service.IsBlankDataURL(req.DrawingDataURL) {
		drawingSrc = req.DrawingDataURL
	}

	data := previewData{
		GeneratedOn: record.GeneratedAt.Format("02/01/2006"),
		TaskName:    display(record.TaskName),
		TaskNo:      display(record.TaskNo),
		AccountNo:   display(record.AccountNo),
		CompanyName: display(record.CompanyName),
		TransformNo: display(record.TransformNo),
		Date:        display(record.DateText),
		Address:     display(record.Address),
		Description: display(record.Description),
		PhotoSrc:    photoSrc,
		DrawingSrc:  drawingSrc,
	}
	if record.Location != nil {
		if record.Location.AddressText != "" {
			data.Location = display(record.Location.AddressText)
		} else {
			data.Location = "Selected via map"
		}
		if record.Location.HasCoordinates() {
			lat, lng := *record.Location.Latitude, *record.Location.Longitude
			data.Coordinates = display(fmt.Sprintf("%.6f, %.6f", lat, lng))
			data.MapsURL = fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", lat, lng)
		} else {
			data.Coordinates = display("")
		}
	} else {
		data.Location = display("")
		data.Coordinates = display("")
	}

	var buf strings.Builder
	if err := previewTemplate.Execute(&buf, data); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build preview"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(buf.String()))
}

type previewData struct {
	GeneratedOn string
	TaskName    template.HTML
	TaskNo      template.HTML
	AccountNo   template.HTML
	CompanyName template.HTML
	TransformNo template.HTML
	Date        template.HTML
	Location    template.HTML
	Coordinates template.HTML
	Address     template.HTML
	Description template.HTML
	MapsURL     string
	PhotoSrc    string
	DrawingSrc  string
}

// display wraps a builder-sanitized value for template insertion, with
// the italic sentinel for empty fields. Values reach this point with
// angle brackets already escaped.
func display(v string) template.HTML {
	if strings.TrimSpace(v) == "" {
		return "<em>Not provided</em>"
	}
	return template.HTML(v)
}

var previewTemplate = template.Must(template.New("preview").Parse(`<div class="card p-3">
  <h3 class="text-center mb-2">TASK DOCUMENT</h3>
  <p class="text-center text-muted">Generated on: {{.GeneratedOn}}</p>
  <hr />
  <h5>TASK DETAILS</h5>
  <div class="row">
    <div class="col-6"><strong>Task Name:</strong> {{.TaskName}}</div>
    <div class="col-6"><strong>Task No:</strong> {{.TaskNo}}</div>
  </div>
  <div class="row mt-2">
    <div class="col-6"><strong>Account No:</strong> {{.AccountNo}}</div>
    <div class="col-6"><strong>Company Name:</strong> {{.CompanyName}}</div>
  </div>
  <div class="row mt-2">
    <div class="col-6"><strong>Transform No:</strong> {{.TransformNo}}</div>
    <div class="col-6"><strong>Date:</strong> {{.Date}}</div>
  </div>
  <div><strong>Location:</strong> {{.Location}}</div>
  {{if .MapsURL}}<div class="mt-1">
    <a href="{{.MapsURL}}" target="_blank" rel="noopener" class="btn btn-sm btn-outline-primary">View on Google Maps</a>
  </div>{{end}}
  <div><strong>Coordinates:</strong> {{.Coordinates}}</div>
  <h5 class="mt-3">Address</h5>
  <div>{{.Address}}</div>
  <h5 class="mt-3">Description</h5>
  <div>{{.Description}}</div>
  <h5 class="mt-3">Attachments</h5>
  <div class="row">
    <div class="col-6 text-center">
      <strong>Photo</strong><br />
      {{if .PhotoSrc}}<img src="{{.PhotoSrc}}" alt="Photo" class="preview-attachment" />{{else}}<em>No photo attached</em>{{end}}
    </div>
    <div class="col-6 text-center">
      <strong>Drawing</strong><br />
      {{if .DrawingSrc}}<img src="{{.DrawingSrc}}" alt="Drawing" class="preview-attachment" />{{else}}<em>No drawing attached</em>{{end}}
    </div>
  </div>
</div>`))
