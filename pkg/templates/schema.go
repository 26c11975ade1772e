// pkg/templates/schema.go
package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// CatalogFile is the on-disk overlay format. Entries replace or extend
// the compiled-in catalog by id.
type CatalogFile struct {
	Version   string       `json:"version"`
	Templates []Descriptor `json:"templates"`
}

var catalogSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"version", "templates"},
	"properties": map[string]interface{}{
		"version": map[string]interface{}{"type": "string"},
		"templates": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []string{"id", "category", "label"},
				"properties": map[string]interface{}{
					"id":          map[string]interface{}{"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
					"category":    map[string]interface{}{"type": "string", "enum": []string{"coding", "writing", "research", "planning", "communication", "creative", "general"}},
					"label":       map[string]interface{}{"type": "string"},
					"description": map[string]interface{}{"type": "string"},
					"minPlan":     map[string]interface{}{"type": "string", "enum": []string{"free", "starter", "pro", "team"}},
				},
			},
		},
	},
}

// ValidateCatalogJSON checks raw catalog JSON against the overlay schema.
func ValidateCatalogJSON(data []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(catalogSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("catalog schema validation: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid catalog: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// LoadCatalog reads an overlay file and returns a registry with the
// overlay entries merged over the compiled-in catalog.
func LoadCatalog(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := ValidateCatalogJSON(data); err != nil {
		return nil, err
	}

	var file CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	merged := make([]Descriptor, 0, len(builtinCatalog)+len(file.Templates))
	seen := make(map[string]int, len(builtinCatalog))
	for _, d := range builtinCatalog {
		seen[d.ID] = len(merged)
		merged = append(merged, d)
	}
	for _, d := range file.Templates {
		if d.MinPlan == "" {
			d.MinPlan = "free"
		}
		if i, ok := seen[d.ID]; ok {
			merged[i] = d
			continue
		}
		seen[d.ID] = len(merged)
		merged = append(merged, d)
	}
	return newRegistry(merged), nil
}
