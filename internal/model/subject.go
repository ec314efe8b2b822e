package model

import "time"

// Subject is a topic whose question bank exams are drawn from.
type Subject struct {
	ID        int       `json:"id" validate:"gt=0"`
	Name      string    `json:"name" validate:"required"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SubjectsResponse is the success body of GET /api/subjects.
type SubjectsResponse struct {
	Success  bool      `json:"success"`
	Subjects []Subject `json:"subjects" validate:"dive"`
}
