// Package ratings implements the feedback domain for verfahren.
// It collects human quality ratings for generated BPMN models, enforces
// the at-most-one-rating-per-model invariant, and keeps an append-only
// rating history that outlives the rated models.
package ratings

import "time"

// Score bounds for both rating dimensions (closed range).
const (
	ScoreMin = 1
	ScoreMax = 10
)

// Rating represents an immutable quality assessment of a generated model.
// StructuralScore rates BPMN structure, ContentAccuracyScore rates how
// faithfully the model reflects the source text. Ratings are never
// mutated or deleted; removing the rated model orphans the rating but
// keeps it queryable for the external improvement process.
type Rating struct {
	ID                   int64     `json:"id"`
	ModelID              int64     `json:"model_id"`
	StructuralScore      int       `json:"structural_score"`
	ContentAccuracyScore int       `json:"content_accuracy_score"`
	FeedbackText         string    `json:"feedback_text"`
	CreatedAt            time.Time `json:"created_at"`
}

// SubmitCommand carries the data needed to rate an unrated model.
// FeedbackText may be empty.
type SubmitCommand struct {
	ModelID              int64  `json:"model_id"`
	StructuralScore      int    `json:"structural_score"`
	ContentAccuracyScore int    `json:"content_accuracy_score"`
	FeedbackText         string `json:"feedback_text"`
}

// Validate checks that both scores fall within the closed score range.
func (c SubmitCommand) Validate() error {
	if !validScore(c.StructuralScore) || !validScore(c.ContentAccuracyScore) {
		return ErrScoreOutOfRange
	}
	return nil
}

func validScore(score int) bool {
	return score >= ScoreMin && score <= ScoreMax
}
