package models

import "time"

// Feedback is one user verdict on a served answer. Negative feedback may
// carry a corrected answer that gets promoted into the knowledge base.
type Feedback struct {
	ID              int64     `json:"id"`
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	Helpful         bool      `json:"helpful"`
	CorrectedAnswer string    `json:"corrected_answer,omitempty"`
	Comment         string    `json:"comment,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
