// Package api is the HTTP client for the transcription server: one multipart
// upload endpoint and a read-only history endpoint, both JSON.
package api

// TranscriptionRecord is one server-produced transcription. Identity is ID.
type TranscriptionRecord struct {
	ID            int    `json:"id"`
	Timestamp     string `json:"timestamp"`
	Transcription string `json:"transcription"`
	Filename      string `json:"filename,omitempty"`
}

// UploadResponse is the body of POST /api/upload.
type UploadResponse struct {
	Success       bool   `json:"success"`
	ID            *int   `json:"id,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
	Transcription string `json:"transcription,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Record returns the transcription carried by a successful upload response.
func (r UploadResponse) Record() TranscriptionRecord {
	rec := TranscriptionRecord{Timestamp: r.Timestamp, Transcription: r.Transcription}
	if r.ID != nil {
		rec.ID = *r.ID
	}
	return rec
}

// HistoryResponse is the body of GET /api/transcriptions, oldest first.
type HistoryResponse struct {
	Transcriptions []TranscriptionRecord `json:"transcriptions"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
