package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Document is a submitted document as stored by the Document Store.
// Objects holds the shape list as a JSON string (see EncodeShapes).
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Theme     string    `json:"theme"`
	Overview  string    `json:"overview"`
	Results   string    `json:"results"`
	Objects   string    `json:"objects"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Draft is the in-progress, unsubmitted form of a document.
type Draft struct {
	Title    string  `json:"title"`
	Theme    string  `json:"theme"`
	Overview string  `json:"overview"`
	Results  string  `json:"results"`
	Shapes   []Shape `json:"-"`
}

// DocumentStore is the remote service of record for submitted documents.
type DocumentStore interface {
	Create(ctx context.Context, doc *Document) (string, error)
	Update(ctx context.Context, id string, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
}

// DraftCache is a process-local durable key/blob store. Load reports
// ok=false when the key is absent.
type DraftCache interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) (blob []byte, ok bool, err error)
	Clear(ctx context.Context, key string) error
}

type draftWire struct {
	Title    string  `json:"title"`
	Theme    string  `json:"theme"`
	Overview string  `json:"overview"`
	Results  string  `json:"results"`
	Shapes   []Entry `json:"shapes"`
}

// MarshalJSON writes the draft with shapes in their wire form.
func (d Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(draftWire{
		Title:    d.Title,
		Theme:    d.Theme,
		Overview: d.Overview,
		Results:  d.Results,
		Shapes:   ToEntries(d.Shapes),
	})
}

// UnmarshalJSON reads a draft written by MarshalJSON.
func (d *Draft) UnmarshalJSON(data []byte) error {
	var w draftWire
	if err := json.Unmarshal(data, &w); err != nil {
		return &SerializationError{Err: err}
	}
	shapes, err := FromEntries(w.Shapes)
	if err != nil {
		return err
	}
	*d = Draft{Title: w.Title, Theme: w.Theme, Overview: w.Overview, Results: w.Results, Shapes: shapes}
	return nil
}
