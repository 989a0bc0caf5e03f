package entity

import "time"

// Download event outcomes written to the journal.
const (
	DownloadOk       = "ok"
	DownloadFailed   = "failed"
	DownloadOversize = "oversize"
)

// DownloadEvent is an append-only journal record of a download attempt.
// It is written best-effort and never read back for quota or gate decisions.
type DownloadEvent struct {
	UserId    int64     `json:"user_id" bson:"user_id"`
	Url       string    `json:"url" bson:"url"`
	Height    int       `json:"height" bson:"height"`
	Status    string    `json:"status" bson:"status"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	SizeBytes int64     `json:"size_bytes" bson:"size_bytes"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
