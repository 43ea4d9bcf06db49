package yamladapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/wirestate/internal/config"
	"github.com/zclconf/go-cty/cty"
)

func loadString(t *testing.T, name, src string) (*config.Model, error) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0600))
	return NewLoader().Load(context.Background(), dir)
}

func TestLoad_FullComponent(t *testing.T) {
	model, err := loadString(t, "search.yaml", `
components:
  - name: search
    description: A search form.
    properties:
      - name: search
        type: string
        default: ""
        live: true
        debounce: 300ms
        url:
          except: ""
      - name: page
        type: number
        cast: integer
        default: 1
        url:
          as: p
          except: 1
    computed:
      - name: results
        handler: ComputeSearchResults
    actions:
      - name: clear
        handler: OnClearSearch
`)
	require.NoError(t, err)
	require.Len(t, model.Components, 1)

	def := model.Components["search"]
	require.NotNil(t, def)

	search := def.Properties["search"]
	require.NotNil(t, search)
	assert.True(t, search.Type.Equals(cty.String))
	require.NotNil(t, search.Default)
	assert.Equal(t, "", search.Default.AsString())
	assert.True(t, search.Live)
	assert.Equal(t, 300*time.Millisecond, search.Debounce)
	require.NotNil(t, search.URL)
	assert.Equal(t, "search", search.URL.Key)

	page := def.Properties["page"]
	require.NotNil(t, page)
	assert.Equal(t, "integer", page.Cast)
	assert.Equal(t, "p", page.URL.Key)
	require.NotNil(t, page.URL.Except)
	assert.True(t, cty.NumberIntVal(1).RawEquals(*page.URL.Except))

	assert.Equal(t, "ComputeSearchResults", def.Computed["results"].Handler)
	assert.Equal(t, "OnClearSearch", def.Actions["clear"].Handler)
}

func TestLoad_MissingTypeMeansAny(t *testing.T) {
	model, err := loadString(t, "c.yml", `
components:
  - name: c
    properties:
      - name: blob
`)
	require.NoError(t, err)
	assert.True(t, model.Components["c"].Properties["blob"].Type.Equals(cty.DynamicPseudoType))
}

func TestLoad_CollectionTypeStrings(t *testing.T) {
	model, err := loadString(t, "c.yaml", `
components:
  - name: c
    properties:
      - name: tags
        type: list(string)
`)
	require.NoError(t, err)
	assert.True(t, model.Components["c"].Properties["tags"].Type.Equals(cty.List(cty.String)))
}

func TestLoad_InvalidTypeFails(t *testing.T) {
	_, err := loadString(t, "c.yaml", `
components:
  - name: c
    properties:
      - name: x
        type: wibble
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown primitive type")
}

func TestLoad_DuplicateComponentFails(t *testing.T) {
	dir := t.TempDir()
	doc := `
components:
  - name: c
    properties:
      - name: x
        type: string
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(doc), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte(doc), 0600))

	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared more than once")
}
