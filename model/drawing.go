package model

// SavedDrawing is one entry of the persisted drawings list. Entries are
// never mutated in place; the list is append/remove only.
type SavedDrawing struct {
	ID        string `json:"id"`
	DataURL   string `json:"dataURL"`
	Label     string `json:"label"`
	CreatedAt string `json:"createdAt"`
}
