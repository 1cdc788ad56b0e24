package domain

import "time"

// Resume is a constituent item of a batch.
type Resume struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	FileName   string    `json:"file_name"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AnalysisResult is a computed result scoped to one resume of a batch.
type AnalysisResult struct {
	ResumeID      string   `json:"resume_id"`
	BatchID       string   `json:"batch_id"`
	Score         float64  `json:"score"`
	MatchedSkills []string `json:"matched_skills"`
}
