package model

import (
	"time"
)

// NotProvided is the sentinel rendered for empty scalar fields.
const NotProvided = "Not provided"

// DocumentRecord is the normalized snapshot handed to the rendering
// engine. It is rebuilt from current form and store state on every
// generate or preview action and never mutated after construction.
type DocumentRecord struct {
	TaskName    string `json:"task_name"`
	TaskNo      string `json:"task_no"`
	AccountNo   string `json:"account_no"`
	CompanyName string `json:"company_name"`
	TransformNo string `json:"transform_no"`
	DateText    string `json:"date_text"`
	Address     string `json:"address"`
	Description string `json:"description"`

	Location *Location   `json:"location,omitempty"`
	Photo    *Attachment `json:"photo,omitempty"`
	Drawing  *Attachment `json:"drawing,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Location holds a confirmed map pick. AddressText may exist without
// coordinates (manual text); coordinates only appear if a fix was
// confirmed.
type Location struct {
	AddressText string   `json:"address_text,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l *Location) HasCoordinates() bool {
	return l != nil && l.Latitude != nil && l.Longitude != nil
}

// Attachment is an inline raster image.
type Attachment struct {
	Format string `json:"format"` // png, jpeg, webp
	Data   []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Present reports whether the attachment carries actual image data.
func (a *Attachment) Present() bool {
	return a != nil && len(a.Data) > 0
}
