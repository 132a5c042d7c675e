package api

// RankRequest is the body of POST /api/v1/rank.
type RankRequest struct {
	ProductName string `json:"product_name"`
}

// UploadResponse reports what one table upload staged.
type UploadResponse struct {
	Source  string `json:"source"`
	Kept    int    `json:"kept"`
	Dropped int    `json:"dropped"`
}

// MergeResponse reports one merge/append pass.
type MergeResponse struct {
	Records int `json:"records"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Records       int             `json:"records"`
	StagedTables  map[string]bool `json:"staged_tables"`
	LastMergeTime string          `json:"last_merge_time,omitempty"`
}

// WarningResponse signals "product found, nothing rankable", a soft outcome
// distinct from both success and a hard error.
type WarningResponse struct {
	Warning string `json:"warning"`
}

// errorResponse is the JSON error body. The field name follows the legacy
// service's responses, which downstream UIs already parse.
type errorResponse struct {
	Detail string `json:"detail"`
}
