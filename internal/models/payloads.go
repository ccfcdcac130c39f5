package models

import "encoding/json"

// These structs define the JSON payloads for HTTP requests and responses
// between the Cloud Workflow, the front end and the worker Cloud Functions.

// Ingest statuses.
const (
	StatusStored   = "stored"
	StatusDegraded = "degraded"
	StatusInvalid  = "invalid"
)

// IngestRequest is the input for the document-ingestor function. Exactly one of Raw or
// Prompt is expected; with Prompt the text is generated first.
type IngestRequest struct {
	OwnerID string          `json:"ownerId"`
	Kind    string          `json:"kind"`
	Raw     json.RawMessage `json:"raw,omitempty"`
	Prompt  string          `json:"prompt,omitempty"`
	// Format selects the recovery strategy: "json" (default) or "sections".
	Format string `json:"format,omitempty"`
}

// IngestResponse is the output of the document-ingestor function.
type IngestResponse struct {
	Status              string         `json:"status"`
	Kind                string         `json:"kind"`
	Reason              string         `json:"reason,omitempty"`
	Violations          []string       `json:"violations,omitempty"`
	Diagnostics         []string       `json:"diagnostics,omitempty"`
	ArchiveGCSUri       string         `json:"archiveGcsUri,omitempty"`
	Document            json.Marshaler `json:"document,omitempty"`
	WorkflowExecutionID string         `json:"workflowExecutionId,omitempty"`
}

// MergeRequest is the input for the profile-merger function.
type MergeRequest struct {
	OwnerID     string `json:"ownerId"`
	ExecutionID string `json:"executionId,omitempty"`
}

// MergeResponse is the output of the profile-merger function.
type MergeResponse struct {
	Status string         `json:"status"`
	Record json.Marshaler `json:"record"`
}

// CompletionRequest is the input for recording one item completion.
type CompletionRequest struct {
	OwnerID string `json:"ownerId"`
	PlanID  string `json:"planId"`
	ItemID  string `json:"itemId"`
	Status  string `json:"status,omitempty"`
	Note    string `json:"note,omitempty"`
}

// CompletionResponse reports whether the completion was new.
type CompletionResponse struct {
	Outcome string `json:"outcome"`
	EventID string `json:"eventId"`
}

// ProgressRequest asks for the completion progress of a plan.
type ProgressRequest struct {
	OwnerID string `json:"ownerId"`
	PlanID  string `json:"planId"`
	Total   int    `json:"total"`
}

// ProgressResponse is the completion progress of a plan.
type ProgressResponse struct {
	Completed      int      `json:"completed"`
	Total          int      `json:"total"`
	Threshold      int      `json:"threshold"`
	Unlocked       bool     `json:"unlocked"`
	CompletedItems []string `json:"completedItems"`
}
