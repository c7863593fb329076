// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// ReprocessTask represents a request to re-run extraction, chunking and
// embedding for an already-archived document.
type ReprocessTask struct {
	DocumentID string `json:"document_id"`
	SubjectID  string `json:"subject_id"`
	ObjectKey  string `json:"object_key"`
	Filename   string `json:"filename"`
}
