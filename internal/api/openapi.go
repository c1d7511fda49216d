package api

import (
	"fmt"

	"github.com/verfahren/verfahren/internal/config"
	"github.com/verfahren/verfahren/pkg/openapi"
)

// buildSpec assembles the OpenAPI 3.1 document for the API module.
// Paths are relative to the module base path, which is registered as
// the spec server.
func buildSpec(cfg *config.Config) (*openapi.Spec, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"filename":       {Type: "string"},
				"content_type":   {Type: "string"},
				"size_bytes":     {Type: "integer"},
				"page_count":     {Type: "integer"},
				"status":         {Type: "string", Enum: []any{"ready", "processing", "done", "failed"}},
				"failure_reason": {Type: "string"},
			},
		},
		"Model": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                 {Type: "integer", Format: "int64"},
				"source_document_id": {Type: "string", Format: "uuid"},
				"name":               {Type: "string"},
				"xml_content":        {Type: "string", Description: "BPMN 2.0 XML"},
				"review_state":       {Type: "string", Enum: []any{"unrated", "rated"}},
			},
		},
		"Rating": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                     {Type: "integer", Format: "int64"},
				"model_id":               {Type: "integer", Format: "int64"},
				"structural_score":       {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(10)},
				"content_accuracy_score": {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(10)},
				"feedback_text":          {Type: "string"},
			},
		},
		"SubmitRating": {
			Type:     "object",
			Required: []string{"model_id", "structural_score", "content_accuracy_score"},
			Properties: map[string]*openapi.Schema{
				"model_id":               {Type: "integer", Format: "int64"},
				"structural_score":       {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(10)},
				"content_accuracy_score": {Type: "integer", Minimum: floatPtr(1), Maximum: floatPtr(10)},
				"feedback_text":          {Type: "string"},
			},
		},
		"Run": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string", Format: "uuid"},
				"document_id":      {Type: "string", Format: "uuid"},
				"status":           {Type: "string", Enum: []any{"running", "done", "failed", "canceled"}},
				"completed_stages": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"model_id":         {Type: "integer", Format: "int64"},
				"error":            {Type: "string"},
			},
		},
		"Prompt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"name":         {Type: "string"},
				"stage":        {Type: "string"},
				"instructions": {Type: "string"},
				"active":       {Type: "boolean"},
			},
		},
	})

	addDocumentPaths(spec)
	addPipelinePaths(spec)
	addModelPaths(spec)
	addRatingPaths(spec)
	addPromptPaths(spec)

	return spec, nil
}

func addDocumentPaths(spec *openapi.Spec) {
	spec.Paths["/documents"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List documents",
			Tags:    []string{"documents"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated documents", "Document"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Upload a PDF document",
			Description: "Multipart upload. Re-uploading an existing filename returns the original record.",
			Tags:        []string{"documents"},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Registered document", "Document"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/documents/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Get a document",
			Tags:       []string{"documents"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Document", "Document"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a document",
			Tags:       []string{"documents"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document id")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/documents/{id}/generate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Start a pipeline run",
			Description: "Claims the document and begins background processing. A document holds at most one in-flight run.",
			Tags:        []string{"pipeline"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Document id")},
			Responses: map[int]*openapi.Response{
				202: openapi.ResponseJSON("Run record", "Run"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
}

func addPipelinePaths(spec *openapi.Spec) {
	spec.Paths["/pipeline/runs/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Get a pipeline run",
			Tags:       []string{"pipeline"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Run record", "Run"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/pipeline/runs/{id}/events"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Poll run progress events",
			Tags:    []string{"pipeline"},
			Parameters: []*openapi.Parameter{
				openapi.PathParam("id", "Run id"),
				openapi.QueryParam("since", "integer", "Sequence cursor from the previous page", false),
				openapi.QueryParam("wait", "boolean", "Block until an event arrives", false),
			},
			Responses: map[int]*openapi.Response{
				200: {Description: "Events after the cursor"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/pipeline/runs/{id}/cancel"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Cancel a running pipeline run",
			Tags:       []string{"pipeline"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run id")},
			Responses: map[int]*openapi.Response{
				202: {Description: "Cancellation requested"},
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
}

func addModelPaths(spec *openapi.Spec) {
	spec.Paths["/models"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List generated models",
			Tags:    []string{"models"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated models", "Model"),
			},
		},
	}
	idParam := &openapi.Parameter{
		Name: "id", In: "path", Required: true,
		Description: "Model id",
		Schema:      &openapi.Schema{Type: "integer", Format: "int64"},
	}
	spec.Paths["/models/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Get a model",
			Tags:       []string{"models"},
			Parameters: []*openapi.Parameter{idParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Model", "Model"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a model",
			Tags:       []string{"models"},
			Parameters: []*openapi.Parameter{idParam},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/models/{id}/download"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Download BPMN XML",
			Tags:       []string{"models"},
			Parameters: []*openapi.Parameter{idParam},
			Responses: map[int]*openapi.Response{
				200: {Description: "BPMN 2.0 XML attachment"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addRatingPaths(spec *openapi.Spec) {
	spec.Paths["/ratings"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List submitted ratings",
			Tags:    []string{"ratings"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated ratings", "Rating"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Submit a rating",
			Description: "Rates an unrated model exactly once; a second rating for the same model conflicts.",
			Tags:        []string{"ratings"},
			RequestBody: openapi.RequestBodyJSON("SubmitRating", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Stored rating", "Rating"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
	spec.Paths["/ratings/next"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Next model awaiting review",
			Description: "Returns the oldest unrated model, or 204 when the review queue is empty.",
			Tags:        []string{"ratings"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Model awaiting review", "Model"),
				204: {Description: "No models awaiting review"},
			},
		},
	}
}

func addPromptPaths(spec *openapi.Spec) {
	spec.Paths["/prompts"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List prompt overrides",
			Tags:    []string{"prompts"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated prompts", "Prompt"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create a prompt override",
			Tags:        []string{"prompts"},
			RequestBody: openapi.RequestBodyJSON("Prompt", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created prompt", "Prompt"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/prompts/{stage}/instructions"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Effective stage instructions",
			Description: "Returns the active override when one exists, otherwise the built-in default.",
			Tags:        []string{"prompts"},
			Parameters: []*openapi.Parameter{{
				Name: "stage", In: "path", Required: true,
				Description: "Pipeline stage",
				Schema:      &openapi.Schema{Type: "string"},
			}},
			Responses: map[int]*openapi.Response{
				200: {Description: "Stage instructions"},
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

// specBytes serializes the spec once at startup; the document does not
// change while the process runs.
func specBytes(cfg *config.Config) ([]byte, error) {
	spec, err := buildSpec(cfg)
	if err != nil {
		return nil, err
	}
	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return data, nil
}
