package domain

import "time"

// BatchState is the logical state of a batch as mirrored across stores.
// The recovery core treats it as a field-comparable record and does not
// interpret status semantics beyond the fixed "ready wins" preference.
type BatchState struct {
	BatchID       string      `json:"batch_id"`
	SessionID     string      `json:"session_id"`
	Status        BatchStatus `json:"status"`
	ResumeCount   int         `json:"resume_count"`
	LastValidated time.Time   `json:"last_validated"`
	Error         *BatchError `json:"error,omitempty"`
	IsOwner       bool        `json:"is_owner"`
	Locked        bool        `json:"locked"`
}

type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusReady      BatchStatus = "ready"
	BatchStatusError      BatchStatus = "error"
)

// BatchError describes a failure recorded against a batch.
type BatchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Equal compares two error descriptors by value. Both nil is equal.
func (e *BatchError) Equal(other *BatchError) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Code == other.Code && e.Message == other.Message
}

// Clone returns a shallow copy safe to hand to callers.
func (s *BatchState) Clone() *BatchState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Error != nil {
		errCopy := *s.Error
		out.Error = &errCopy
	}
	return &out
}
