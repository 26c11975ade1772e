// pkg/templates/catalog_test.go
package templates

import (
	"os"
	"testing"

	"promptlab-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	d, ok := r.Lookup("coding_debug")
	require.True(t, ok)
	assert.Equal(t, "coding_debug", d.ID)
	assert.Equal(t, CategoryCoding, d.Category)

	_, ok = r.Lookup("no_such_template")
	assert.False(t, ok)
}

func TestRegistry_Default(t *testing.T) {
	r := NewRegistry()

	d := r.Default()
	assert.Equal(t, DefaultTemplateID, d.ID)
	assert.Equal(t, CategoryGeneral, d.Category)
}

func TestRegistry_CategoryDefault(t *testing.T) {
	tests := []struct {
		name     string
		category string
		wantID   string
		wantOK   bool
	}{
		{"coding maps to feature template", "coding", "coding_feature", true},
		{"writing maps to blog post", "writing", "writing_blog_post", true},
		{"case and whitespace normalized", "  Research ", "research_deep_dive", true},
		{"unknown category", "astrology", "", false},
		{"empty category", "", "", false},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := r.CategoryDefault(tt.category)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, d.ID)
			}
		})
	}
}

func TestRegistry_ResolveSlug(t *testing.T) {
	tests := []struct {
		name   string
		slug   string
		wantID string
		wantOK bool
	}{
		{"exact id", "coding_tests", "coding_tests", true},
		{"underscore version suffix", "coding_debug_v3", "coding_debug", true},
		{"dash version suffix", "writing_summary-v12", "writing_summary", true},
		{"uppercase slug", "CODING_REFACTOR", "coding_refactor", true},
		{"bare v is not a version", "coding_debug_v", "", false},
		{"non-numeric version", "coding_debug_vx", "", false},
		{"unknown base", "quantum_flux_v2", "", false},
		{"empty slug", "", "", false},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := r.ResolveSlug(tt.slug)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, d.ID)
			}
		})
	}
}

func TestRegistry_AllowedFor(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.AllowedFor("coding_debug", models.PlanFree))
	assert.False(t, r.AllowedFor("research_deep_dive", models.PlanStarter))
	assert.True(t, r.AllowedFor("research_deep_dive", models.PlanPro))
	assert.True(t, r.AllowedFor("research_deep_dive", models.PlanTeam))
	assert.False(t, r.AllowedFor("no_such_template", models.PlanTeam))

	// Unknown plans rank below free, so even open templates stay closed.
	assert.False(t, r.AllowedFor("coding_debug", models.Plan("enterprise_legacy")))
}

func TestRegistry_IDs_StableOrder(t *testing.T) {
	r := NewRegistry()

	first := r.IDs()
	second := r.IDs()
	require.Equal(t, first, second)
	assert.Len(t, first, len(builtinCatalog))
	assert.Equal(t, "coding_tests", first[0])
	assert.Equal(t, DefaultTemplateID, first[len(first)-1])
}

func TestValidateCatalogJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{
			name:    "valid overlay",
			payload: `{"version":"1.0.0","templates":[{"id":"coding_debug","category":"coding","label":"Debug"}]}`,
			wantErr: false,
		},
		{
			name:    "missing version",
			payload: `{"templates":[]}`,
			wantErr: true,
		},
		{
			name:    "bad template id",
			payload: `{"version":"1","templates":[{"id":"Not-Valid","category":"coding","label":"x"}]}`,
			wantErr: true,
		},
		{
			name:    "unknown category",
			payload: `{"version":"1","templates":[{"id":"a_b","category":"astrology","label":"x"}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `version: 1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalogJSON([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadCatalog_MergesOverlay(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/catalog.json"
	overlay := `{
		"version": "1.0.0",
		"templates": [
			{"id": "coding_debug", "category": "coding", "label": "Debug Override", "minPlan": "pro"},
			{"id": "research_literature_review", "category": "research", "label": "Literature Review"}
		]
	}`
	require.NoError(t, writeFile(path, overlay))

	r, err := LoadCatalog(path)
	require.NoError(t, err)

	// Existing entry replaced in place.
	d, ok := r.Lookup("coding_debug")
	require.True(t, ok)
	assert.Equal(t, "Debug Override", d.Label)
	assert.Equal(t, models.PlanPro, d.MinPlan)

	// New entry appended with the free default gate.
	d, ok = r.Lookup("research_literature_review")
	require.True(t, ok)
	assert.Equal(t, models.PlanFree, d.MinPlan)

	assert.Len(t, r.IDs(), len(builtinCatalog)+1)
}

func TestLoadCatalog_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/catalog.json"
	require.NoError(t, writeFile(path, `{"templates": []}`))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
