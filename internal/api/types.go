package api

import "time"

// User is the backend account profile.
type User struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Username  string            `json:"username,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitzero"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Session carries the token material issued on login or signup. The backend
// nests snake_case fields under "session"; that is the one canonical shape
// this client decodes.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// Empty reports whether the backend issued no usable session, which signup
// uses to signal that email confirmation is still pending.
func (s Session) Empty() bool {
	return s.AccessToken == ""
}

// Credentials is the combined payload of a successful login or signup.
type Credentials struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
}

// File is one analyzed photo as the backend reports it.
type File struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	Caption    string    `json:"caption"`
	Tags       []string  `json:"tags"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
	Analyzed   bool      `json:"analyzed"`
}

// UploadOutcome is the per-item result inside a bulk-upload response.
type UploadOutcome struct {
	FileName string `json:"file_name"`
	FileID   string `json:"file_id,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// BulkUploadResult summarizes a bulk upload. SuccessfulUploads may be lower
// than the submitted count; Results carries per-item failure detail so the
// caller can report partial batches without dropping items.
type BulkUploadResult struct {
	SuccessfulUploads int             `json:"successfulUploads"`
	Results           []UploadOutcome `json:"results"`
}

// AnalysisStatus is the polling response for the most recent uploads.
type AnalysisStatus struct {
	AllAnalyzed     bool `json:"allAnalyzed"`
	ProcessingCount int  `json:"processingCount"`
}

type userPayload struct {
	User User `json:"user"`
}

type credentialsPayload struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
}
