package rows

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gridview/app/timestamps"
)

// Ancillary holds the sparse sensor readings attached to an imaged moment.
// Fields are nil when the source column was null or absent.
type Ancillary struct {
	DepthMeters        *float64 `json:"depth_meters,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	OxygenMlL          *float64 `json:"oxygen_ml_l,omitempty"`
	PressureDbar       *float64 `json:"pressure_dbar,omitempty"`
	Salinity           *float64 `json:"salinity,omitempty"`
	TemperatureCelsius *float64 `json:"temperature_celsius,omitempty"`
	LightTransmission  *float64 `json:"light_transmission,omitempty"`
}

// IsEmpty reports whether no sensor field is set.
func (a Ancillary) IsEmpty() bool {
	return a.DepthMeters == nil && a.Latitude == nil && a.Longitude == nil &&
		a.OxygenMlL == nil && a.PressureDbar == nil && a.Salinity == nil &&
		a.TemperatureCelsius == nil && a.LightTransmission == nil
}

// Row is one flat query-result record: a bounding-box-association x
// image-reference join row as returned by the annotation service's query
// endpoint. Optional columns are pointers (or empty strings); the literal
// token "null" and the empty string both normalize to absent.
type Row struct {
	VideoReferenceUUID *uuid.UUID
	ImagedMomentUUID   *uuid.UUID
	ObservationUUID    *uuid.UUID
	AssociationUUID    *uuid.UUID
	ImageReferenceUUID *uuid.UUID

	VideoSequenceName string
	ChiefScientist    string
	CameraPlatform    string
	DiveNumber        string

	VideoStartTimestamp *time.Time
	VideoContainer      string
	VideoURI            string
	VideoWidth          *int
	VideoHeight         *int

	IndexElapsedTimeMillis *int64
	IndexRecordedTimestamp *time.Time
	IndexTimecode          string

	ImageURL    string
	ImageFormat string

	Observer         string
	Concept          string
	ObservationGroup string

	LinkName  string
	ToConcept string
	LinkValue string

	Ancillary Ancillary
}

// AnnotationTime computes the row's observed moment via the usual index
// fallback chain (recorded timestamp, then elapsed millis, then timecode).
func (r *Row) AnnotationTime() (time.Time, bool) {
	return timestamps.AnnotationTime(
		r.VideoStartTimestamp,
		r.IndexRecordedTimestamp,
		r.IndexElapsedTimeMillis,
		r.IndexTimecode,
	)
}

// Parse builds a Row from one TSV record. Header names index the values;
// malformed typed values (bad UUID, timestamp, or number) fail this row only.
func Parse(header []string, values []string) (*Row, error) {
	get := func(col string) string {
		for i, h := range header {
			if h == col && i < len(values) {
				return normalize(values[i])
			}
		}
		return ""
	}

	row := &Row{
		VideoSequenceName: get("video_sequence_name"),
		ChiefScientist:    get("chief_scientist"),
		CameraPlatform:    get("camera_platform"),
		DiveNumber:        get("dive_number"),
		VideoContainer:    get("video_container"),
		VideoURI:          get("video_uri"),
		IndexTimecode:     get("index_timecode"),
		ImageURL:          get("image_url"),
		ImageFormat:       get("image_format"),
		Observer:          get("observer"),
		Concept:           get("concept"),
		ObservationGroup:  get("observation_group"),
		LinkName:          get("link_name"),
		ToConcept:         get("to_concept"),
		LinkValue:         get("link_value"),
	}

	var err error
	if row.VideoReferenceUUID, err = optUUID(get("video_reference_uuid")); err != nil {
		return nil, fmt.Errorf("video_reference_uuid: %w", err)
	}
	if row.ImagedMomentUUID, err = optUUID(get("imaged_moment_uuid")); err != nil {
		return nil, fmt.Errorf("imaged_moment_uuid: %w", err)
	}
	if row.ObservationUUID, err = optUUID(get("observation_uuid")); err != nil {
		return nil, fmt.Errorf("observation_uuid: %w", err)
	}
	if row.AssociationUUID, err = optUUID(get("association_uuid")); err != nil {
		return nil, fmt.Errorf("association_uuid: %w", err)
	}
	if row.ImageReferenceUUID, err = optUUID(get("image_reference_uuid")); err != nil {
		return nil, fmt.Errorf("image_reference_uuid: %w", err)
	}

	if row.VideoStartTimestamp, err = optTime(get("video_start_timestamp")); err != nil {
		return nil, fmt.Errorf("video_start_timestamp: %w", err)
	}
	if row.IndexRecordedTimestamp, err = optTime(get("index_recorded_timestamp")); err != nil {
		return nil, fmt.Errorf("index_recorded_timestamp: %w", err)
	}

	if row.VideoWidth, err = optInt(get("video_width")); err != nil {
		return nil, fmt.Errorf("video_width: %w", err)
	}
	if row.VideoHeight, err = optInt(get("video_height")); err != nil {
		return nil, fmt.Errorf("video_height: %w", err)
	}
	if row.IndexElapsedTimeMillis, err = optInt64(get("index_elapsed_time_millis")); err != nil {
		return nil, fmt.Errorf("index_elapsed_time_millis: %w", err)
	}

	if row.Ancillary.DepthMeters, err = optFloat(get("depth_meters")); err != nil {
		return nil, fmt.Errorf("depth_meters: %w", err)
	}
	if row.Ancillary.Latitude, err = optFloat(get("latitude")); err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	if row.Ancillary.Longitude, err = optFloat(get("longitude")); err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	if row.Ancillary.OxygenMlL, err = optFloat(get("oxygen_ml_l")); err != nil {
		return nil, fmt.Errorf("oxygen_ml_l: %w", err)
	}
	if row.Ancillary.PressureDbar, err = optFloat(get("pressure_dbar")); err != nil {
		return nil, fmt.Errorf("pressure_dbar: %w", err)
	}
	if row.Ancillary.Salinity, err = optFloat(get("salinity")); err != nil {
		return nil, fmt.Errorf("salinity: %w", err)
	}
	if row.Ancillary.TemperatureCelsius, err = optFloat(get("temperature_celsius")); err != nil {
		return nil, fmt.Errorf("temperature_celsius: %w", err)
	}
	if row.Ancillary.LightTransmission, err = optFloat(get("light_transmission")); err != nil {
		return nil, fmt.Errorf("light_transmission: %w", err)
	}

	return row, nil
}

// normalize maps the service's null tokens to the empty string.
func normalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "null" {
		return ""
	}
	return v
}

func optUUID(v string) (*uuid.UUID, error) {
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optTime(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, ok := timestamps.ParseISO8601(v)
	if !ok {
		return nil, fmt.Errorf("unparseable timestamp %q", v)
	}
	return &t, nil
}

func optInt(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optInt64(v string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optFloat(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
