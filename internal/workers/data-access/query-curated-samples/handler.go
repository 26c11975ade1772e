// internal/workers/data-access/query-curated-samples/handler.go
package querycuratedsamples

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"promptlab-workers/internal/common/logger"
	"promptlab-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "query-curated-samples"
)

var (
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
)

type Handler struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// sampleDoc is the indexed shape of one curated sample.
type sampleDoc struct {
	Category        string `json:"category"`
	InputText       string `json:"input_text"`
	TemplateSlug    string `json:"template_slug"`
	TemplateVersion string `json:"template_version"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string    `json:"_id"`
			Source sampleDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FindRecent returns up to limit curated samples, most recent first.
func (h *Handler) FindRecent(ctx context.Context, limit int) ([]models.CuratedSampleRow, error) {
	if limit < 1 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
	body, _ := json.Marshal(queryBody)

	size := limit
	req := esapi.SearchRequest{
		Index: []string{h.config.Index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, h.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchQueryFailed, err)
	}

	out := make([]models.CuratedSampleRow, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		out = append(out, models.CuratedSampleRow{
			ID:              hit.ID,
			Category:        hit.Source.Category,
			InputText:       hit.Source.InputText,
			TemplateSlug:    hit.Source.TemplateSlug,
			TemplateVersion: hit.Source.TemplateVersion,
		})
	}

	h.logger.Debug("curated samples fetched", map[string]interface{}{
		"requested": limit,
		"returned":  len(out),
	})
	return out, nil
}
