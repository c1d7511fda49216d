package ratings

import (
	"github.com/verfahren/verfahren/pkg/query"
	"github.com/verfahren/verfahren/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "ratings", "r").
	Project("id", "ID").
	Project("model_id", "ModelID").
	Project("structural_score", "StructuralScore").
	Project("content_accuracy_score", "ContentAccuracyScore").
	Project("feedback_text", "FeedbackText").
	Project("created_at", "CreatedAt")

// History is an audit log: creation order, oldest first.
var defaultSort = query.SortField{
	Field:      "ID",
	Descending: false,
}

func scanRating(s repository.Scanner) (Rating, error) {
	var r Rating
	err := s.Scan(
		&r.ID,
		&r.ModelID,
		&r.StructuralScore,
		&r.ContentAccuracyScore,
		&r.FeedbackText,
		&r.CreatedAt,
	)
	return r, err
}
