package models

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/verfahren/verfahren/pkg/query"
	"github.com/verfahren/verfahren/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "models", "m").
	Project("id", "ID").
	Project("source_document_id", "SourceDocumentID").
	Project("name", "Name").
	Project("xml_content", "XMLContent").
	Project("review_state", "ReviewState").
	Project("created_at", "CreatedAt")

// Monotonic ids double as creation order, which the review queue relies on.
var defaultSort = query.SortField{
	Field:      "ID",
	Descending: false,
}

// Filters contains optional filtering criteria for model queries.
// Nil fields are ignored. ReviewState and SourceDocumentID use exact
// matching, Name uses case-insensitive contains matching.
type Filters struct {
	ReviewState      *string    `json:"review_state,omitempty"`
	SourceDocumentID *uuid.UUID `json:"source_document_id,omitempty"`
	Name             *string    `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("ReviewState", f.ReviewState).
		WhereContains("Name", f.Name)

	if f.SourceDocumentID != nil {
		b.WhereEquals("SourceDocumentID", *f.SourceDocumentID)
	}

	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if rs := values.Get("review_state"); rs != "" {
		f.ReviewState = &rs
	}

	if sd := values.Get("source_document_id"); sd != "" {
		if id, err := uuid.Parse(sd); err == nil {
			f.SourceDocumentID = &id
		}
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	return f
}

func scanModel(s repository.Scanner) (Model, error) {
	var m Model
	err := s.Scan(
		&m.ID,
		&m.SourceDocumentID,
		&m.Name,
		&m.XMLContent,
		&m.ReviewState,
		&m.CreatedAt,
	)
	return m, err
}
