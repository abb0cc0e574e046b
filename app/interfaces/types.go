// Package interfaces holds the types shared between the Go backend and the
// frontend bindings.
package interfaces

// QueryFilters is the frontend's query form: every field is optional and
// unset fields add no constraint.
type QueryFilters struct {
	Concepts       []string `json:"concepts,omitempty"`
	ConceptLike    string   `json:"conceptLike,omitempty"`
	VideoSequences []string `json:"videoSequences,omitempty"`
	Observers      []string `json:"observers,omitempty"`
	Generator      string   `json:"generator,omitempty"`
	// BeginISO/EndISO bound index_recorded_timestamp, ISO-8601
	BeginISO string `json:"beginIso,omitempty"`
	EndISO   string `json:"endIso,omitempty"`
}

// QueryResult summarizes a completed query for the frontend.
type QueryResult struct {
	RowCount    int      `json:"rowCount"`
	ColumnCount int      `json:"columnCount"`
	Columns     []string `json:"columns"`
}

// PopulateResult summarizes a completed populate operation.
type PopulateResult struct {
	UnitCount     int `json:"unitCount"`
	GroupCount    int `json:"groupCount"`
	SequenceCount int `json:"sequenceCount"`
	// FailedUUIDs lists associations that could not be materialized,
	// surfaced as one aggregated warning
	FailedUUIDs []string `json:"failedUuids,omitempty"`
}

// UnitView is the per-thumbnail state the grid renders.
type UnitView struct {
	UUID          string   `json:"uuid"`
	Label         string   `json:"label"`
	Concept       string   `json:"concept"`
	Part          string   `json:"part"`
	Verifier      string   `json:"verifier,omitempty"`
	Verified      bool     `json:"verified"`
	Training      bool     `json:"training"`
	Selected      bool     `json:"selected"`
	Hidden        bool     `json:"hidden"`
	X             int      `json:"x"`
	Y             int      `json:"y"`
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	VideoSourced  bool     `json:"videoSourced"`
	SourceURL     string   `json:"sourceUrl"`
	ElapsedMillis *int64   `json:"elapsedMillis,omitempty"`
	DepthMeters   *float64 `json:"depthMeters,omitempty"`
	RecordedAt    string   `json:"recordedAt,omitempty"`
}

// EditFailure reports one unit whose remote edit did not go through. Each
// represents a user-requested change that may need a manual retry.
type EditFailure struct {
	UUID    string `json:"uuid"`
	Message string `json:"message"`
}
