package graph

import "github.com/google/uuid"

// Observation is the annotation-service record that owns one or more
// bounding box associations. Built once per distinct observation UUID and
// shared by reference among its associations.
type Observation struct {
	UUID             uuid.UUID `json:"uuid"`
	Concept          string    `json:"concept"`
	Observer         string    `json:"observer"`
	Group            string    `json:"group"`
	ImagedMomentUUID uuid.UUID `json:"imaged_moment_uuid"`
}
