package domain

// StoredUpload is the result of accepting a file submission. StoredName is
// derived from a random token and a validated extension only, never from
// OriginalName, so it carries no path separators or traversal sequences.
type StoredUpload struct {
	StoredName   string `json:"stored_name"`
	OriginalName string `json:"original_name"`
	SizeBytes    int64  `json:"size_bytes"`
}
