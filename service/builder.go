package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Jency96/Form-Management/model"
)

// FormSnapshot is the raw state submitted by the form page for a single
// preview or generate action.
type FormSnapshot struct {
	TaskName    string `json:"task_name"`
	TaskNo      string `json:"task_no"`
	AccountNo   string `json:"account_no"`
	CompanyName string `json:"company_name"`
	TransformNo string `json:"transform_no"`
	Date        string `json:"date"`
	Location    string `json:"location"` // the taskLocation field, confirmed via map
	Address     string `json:"address"`
	Description string `json:"description"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// PhotoDataURL overrides the server-held photo slots when set.
	PhotoDataURL string `json:"photo_data_url,omitempty"`

	DrawingDataURL    string `json:"drawing_data_url,omitempty"`
	DrawingHasContent bool   `json:"drawing_has_content"`
}

// DocumentBuilder snapshots form state plus the latest attachment
// artifacts into an immutable DocumentRecord. It is a pure read of
// current state; the record is rebuilt on every call.
type DocumentBuilder struct {
	photos *PhotoStore
}

func NewDocumentBuilder(photos *PhotoStore) *DocumentBuilder {
	return &DocumentBuilder{photos: photos}
}

// Build constructs the DocumentRecord for one generation pass.
func (b *DocumentBuilder) Build(snap *FormSnapshot) *model.DocumentRecord {
	rec := &model.DocumentRecord{
		TaskName:    Sanitize(snap.TaskName),
		TaskNo:      Sanitize(snap.TaskNo),
		AccountNo:   Sanitize(snap.AccountNo),
		CompanyName: Sanitize(snap.CompanyName),
		TransformNo: Sanitize(snap.TransformNo),
		DateText:    Sanitize(snap.Date),
		Address:     Sanitize(snap.Address),
		Description: Sanitize(snap.Description),
		GeneratedAt: time.Now(),
	}

	addressText := Sanitize(snap.Location)
	if addressText != "" || (snap.Latitude != nil && snap.Longitude != nil) {
		loc := &model.Location{AddressText: addressText}
		if snap.Latitude != nil && snap.Longitude != nil {
			lat, lng := *snap.Latitude, *snap.Longitude
			loc.Latitude = &lat
			loc.Longitude = &lng
		}
		rec.Location = loc
	}

	rec.Photo = b.resolvePhoto(snap)
	rec.Drawing = resolveDrawing(snap)

	return rec
}

// resolvePhoto picks the photo with defined precedence: an explicit
// payload on the snapshot, then the attached/captured slots.
func (b *DocumentBuilder) resolvePhoto(snap *FormSnapshot) *model.Attachment {
	src := snap.PhotoDataURL
	if IsBlankDataURL(src) && b.photos != nil {
		src = b.photos.Latest()
	}
	if IsBlankDataURL(src) {
		return nil
	}
	att, err := decodeAttachment(src)
	if err != nil {
		// A broken photo degrades to absent rather than failing the build.
		slog.Warn("photo attachment unusable, continuing without it", "error", err)
		return nil
	}
	return att
}

// resolveDrawing applies the has-content gate: a canvas that exists but
// was never drawn on is not a drawing, whatever its pixels hold.
func resolveDrawing(snap *FormSnapshot) *model.Attachment {
	if !snap.DrawingHasContent || IsBlankDataURL(snap.DrawingDataURL) {
		return nil
	}
	att, err := decodeAttachment(snap.DrawingDataURL)
	if err != nil {
		slog.Warn("drawing attachment unusable, continuing without it", "error", err)
		return nil
	}
	return att
}

func decodeAttachment(dataURL string) (*model.Attachment, error) {
	format, data, err := ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	w, h, err := ProbeDimensions(data, format)
	if err != nil {
		return nil, err
	}
	return &model.Attachment{Format: format, Data: data, Width: w, Height: h}, nil
}

// Sanitize trims a free-text field and escapes angle brackets so the
// value is safe for the HTML preview.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
