package api

import (
	"net/http"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/pkg/openapi"
)

// SpecHandler builds the OpenAPI document for the API and returns a
// handler serving it as JSON.
func SpecHandler(cfg *config.Config) (http.HandlerFunc, error) {
	spec := buildSpec(cfg)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, err
	}

	return openapi.ServeSpec(data), nil
}

func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	slotEnum := make([]any, 0, len(documents.SlotTypes))
	for _, slot := range documents.SlotTypes {
		slotEnum = append(slotEnum, string(slot))
	}

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"Retrieval": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id":     {Type: "string", Format: "uuid"},
				"slot_type":       {Type: "string", Enum: slotEnum},
				"file_name":       {Type: "string"},
				"file_size_bytes": {Type: "integer"},
				"mime_type":       {Type: "string"},
				"download_url":    {Type: "string", Description: "Time-limited signed URL"},
				"uploaded_at":     {Type: "string", Format: "date-time"},
			},
		},
	})

	slotParam := &openapi.Parameter{
		Name:     "slot",
		In:       "path",
		Required: true,
		Schema:   &openapi.Schema{Type: "string", Enum: slotEnum},
	}

	uploadBody := &openapi.RequestBody{
		Required: true,
		Content: map[string]*openapi.MediaType{
			"multipart/form-data": {
				Schema: &openapi.Schema{
					Type:     "object",
					Required: []string{"file", "slot_type"},
					Properties: map[string]*openapi.Schema{
						"file":      {Type: "string", Format: "binary"},
						"slot_type": {Type: "string", Enum: slotEnum},
					},
				},
			},
		},
	}

	replaceBody := &openapi.RequestBody{
		Required: true,
		Content: map[string]*openapi.MediaType{
			"multipart/form-data": {
				Schema: &openapi.Schema{
					Type:     "object",
					Required: []string{"file"},
					Properties: map[string]*openapi.Schema{
						"file": {Type: "string", Format: "binary"},
					},
				},
			},
		},
	}

	spec.Paths["/documents"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List the caller's active documents",
			Tags:    []string{"documents"},
			Responses: map[int]*openapi.Response{
				200: {
					Description: "One entry per occupied slot",
					Content: map[string]*openapi.MediaType{
						"application/json": {
							Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Retrieval")},
						},
					},
				},
			},
		},
		Post: &openapi.Operation{
			Summary:     "Upload a document into a slot",
			Tags:        []string{"documents"},
			RequestBody: uploadBody,
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Document stored", "Retrieval"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/documents/{slot}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Fetch the slot's active document with a fresh download URL",
			Tags:       []string{"documents"},
			Parameters: []*openapi.Parameter{slotParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Active document", "Retrieval"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Put: &openapi.Operation{
			Summary:     "Replace the slot's active document",
			Tags:        []string{"documents"},
			Parameters:  []*openapi.Parameter{slotParam},
			RequestBody: replaceBody,
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Document replaced", "Retrieval"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete the slot's active document",
			Tags:       []string{"documents"},
			Parameters: []*openapi.Parameter{slotParam},
			Responses: map[int]*openapi.Response{
				204: {Description: "Document deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/documents/{slot}/file"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Stream the slot's active document",
			Tags:       []string{"documents"},
			Parameters: []*openapi.Parameter{slotParam},
			Responses: map[int]*openapi.Response{
				200: {Description: "Document bytes"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	return spec
}
