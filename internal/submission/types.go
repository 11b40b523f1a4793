package submission

// Request is one user submission. The credential is used for this call only.
type Request struct {
	Host                 string   `json:"host"`
	IndexNowKey          string   `json:"key"`
	URLList              []string `json:"urlList"`
	GoogleCredentialJSON string   `json:"googleCredentialJson"`
}

// Result is the combined, human-readable outcome of a submission.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"submission_id,omitempty"`
}

// Messages surfaced to callers.
const (
	IndexNowSuccessMessage = "URLs submitted successfully to IndexNow"
	GoogleSuccessMessage   = "URLs submitted successfully to Google Indexing API"
	InternalErrorMessage   = "Internal server error"

	indexNowErrorPrefix   = "IndexNow Error: "
	batchErrorPrefix      = "Batch Request Error: "
	credentialErrorPrefix = "Credential error: "
	tokenErrorPrefix      = "Failed to obtain Google Access Token: "
)
