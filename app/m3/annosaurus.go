package m3

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// AnnosaurusClient talks to the annotation service.
type AnnosaurusClient struct {
	*Client
}

// NewAnnosaurusClient creates an annotation service client.
func NewAnnosaurusClient(baseURL, apiKey string) *AnnosaurusClient {
	return &AnnosaurusClient{Client: NewClient(baseURL, apiKey)}
}

// ImageReference is the annotation service's image record.
type ImageReference struct {
	UUID         string `json:"uuid"`
	URL          string `json:"url"`
	Format       string `json:"format"`
	WidthPixels  int    `json:"width_pixels"`
	HeightPixels int    `json:"height_pixels"`
}

// ObservationRecord is the annotation service's observation document,
// including its association list (used for dangling-observation detection).
type ObservationRecord struct {
	UUID         string `json:"uuid"`
	Concept      string `json:"concept"`
	Observer     string `json:"observer"`
	Group        string `json:"group"`
	Associations []struct {
		UUID     string `json:"uuid"`
		LinkName string `json:"link_name"`
	} `json:"associations"`
}

// GetObservation fetches one observation with its associations.
func (c *AnnosaurusClient) GetObservation(ctx context.Context, observationUUID uuid.UUID) (*ObservationRecord, error) {
	resp, err := c.get(ctx, "/observations/"+observationUUID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, err
	}
	var record ObservationRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal observation: %w", err)
	}
	return &record, nil
}

// GetImageReference fetches one image reference.
func (c *AnnosaurusClient) GetImageReference(ctx context.Context, imageReferenceUUID uuid.UUID) (*ImageReference, error) {
	resp, err := c.get(ctx, "/imagereferences/"+imageReferenceUUID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get image reference: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, err
	}
	var ref ImageReference
	if err := json.Unmarshal(body, &ref); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image reference: %w", err)
	}
	return &ref, nil
}

// UpdateObservationConcept sets an observation's concept and observer.
func (c *AnnosaurusClient) UpdateObservationConcept(ctx context.Context, observationUUID uuid.UUID, concept, observer string) error {
	form := url.Values{}
	form.Set("concept", concept)
	form.Set("observer", observer)
	resp, err := c.authedForm(ctx, "PUT", "/observations/"+observationUUID.String(), form)
	if err != nil {
		return fmt.Errorf("failed to update observation: %w", err)
	}
	_, err = readOK(resp)
	return err
}

// UpdateBoundingBoxPart sets a bounding box association's to_concept.
func (c *AnnosaurusClient) UpdateBoundingBoxPart(ctx context.Context, associationUUID uuid.UUID, part string) error {
	form := url.Values{}
	form.Set("to_concept", part)
	resp, err := c.authedForm(ctx, "PUT", "/associations/"+associationUUID.String(), form)
	if err != nil {
		return fmt.Errorf("failed to update association part: %w", err)
	}
	_, err = readOK(resp)
	return err
}

// UpdateBoundingBoxData rewrites a bounding box association's link_value.
func (c *AnnosaurusClient) UpdateBoundingBoxData(ctx context.Context, associationUUID uuid.UUID, linkValue string) error {
	form := url.Values{}
	form.Set("link_value", linkValue)
	form.Set("mime_type", "application/json")
	resp, err := c.authedForm(ctx, "PUT", "/associations/"+associationUUID.String(), form)
	if err != nil {
		return fmt.Errorf("failed to update association data: %w", err)
	}
	_, err = readOK(resp)
	return err
}

// DeleteAssociation removes one association.
func (c *AnnosaurusClient) DeleteAssociation(ctx context.Context, associationUUID uuid.UUID) error {
	resp, err := c.authedDelete(ctx, "/associations/"+associationUUID.String())
	if err != nil {
		return fmt.Errorf("failed to delete association: %w", err)
	}
	_, err = readOK(resp)
	return err
}

// DeleteObservation removes one observation (and its associations).
func (c *AnnosaurusClient) DeleteObservation(ctx context.Context, observationUUID uuid.UUID) error {
	resp, err := c.authedDelete(ctx, "/observations/"+observationUUID.String())
	if err != nil {
		return fmt.Errorf("failed to delete observation: %w", err)
	}
	_, err = readOK(resp)
	return err
}

// Query runs a query request and returns the raw TSV payload.
func (c *AnnosaurusClient) Query(ctx context.Context, req QueryRequest) (string, error) {
	resp, err := c.postJSON(ctx, "/query/run", req.JSON())
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Count returns the number of rows a query would produce.
func (c *AnnosaurusClient) Count(ctx context.Context, req QueryRequest) (int64, error) {
	resp, err := c.postJSON(ctx, "/query/count", req.JSON())
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return 0, err
	}
	var result struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to unmarshal count: %w", err)
	}
	return result.Count, nil
}
