package store

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `yaml:"name"`
	Value int    `yaml:"value"`
}

func TestDocument_EncodeMergesByIdentity(t *testing.T) {
	doc, err := ParseDocument([]byte(`# header
items:
  - name: a # first
    value: 1
    extra: keep
  - name: b
    value: 2
other: untouched
`))
	require.NoError(t, err)

	var items []item
	require.NoError(t, doc.Decode("items", &items))
	require.Len(t, items, 2)

	updated := []item{{Name: "c", Value: 3}, {Name: "b", Value: 20}, {Name: "a", Value: 10}}
	require.NoError(t, doc.Encode("items", updated, KeyPath("name")))

	out, err := doc.Bytes()
	require.NoError(t, err)

	want := `# header
items:
  - name: c
    value: 3
  - name: b
    value: 20
  - name: a # first
    value: 10
    extra: keep
other: untouched
`
	assert.Equal(t, want, string(out))
}

type labelled struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label,omitempty"`
}

func TestDocument_EncodeRemovesClearedOwnedKeys(t *testing.T) {
	doc, err := ParseDocument([]byte("items:\n  - name: a\n    label: old\n    extra: keep\n"))
	require.NoError(t, err)

	require.NoError(t, doc.Encode("items", []labelled{{Name: "a"}}, KeyPath("name")))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "items:\n  - name: a\n    extra: keep\n", string(out))
}

func TestOwnedKeys(t *testing.T) {
	keys := ownedKeys(reflect.TypeOf([]labelled{}))
	assert.Contains(t, keys, "name")
	assert.Contains(t, keys, "label")
	assert.NotContains(t, keys, "extra")
	assert.Empty(t, ownedKeys(nil))
}

func TestDocument_EncodeNewKey(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Encode("items", []item{{Name: "a", Value: 1}}, KeyPath("name")))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "items:\n  - name: a\n    value: 1\n", string(out))
}

func TestDocument_DropsRemovedItems(t *testing.T) {
	doc, err := ParseDocument([]byte("items:\n  - name: a\n    value: 1\n  - name: b\n    value: 2\n"))
	require.NoError(t, err)

	require.NoError(t, doc.Encode("items", []item{{Name: "b", Value: 2}}, KeyPath("name")))

	var items []item
	require.NoError(t, doc.Decode("items", &items))
	assert.Equal(t, []item{{Name: "b", Value: 2}}, items)
}

func TestDocument_NullAndEmpty(t *testing.T) {
	for _, content := range []string{"", "\n", "items:\n", "~\n"} {
		doc, err := ParseDocument([]byte(content))
		require.NoError(t, err, "content %q", content)

		var items []item
		require.NoError(t, doc.Decode("items", &items))
		assert.Empty(t, items)
	}
}

func TestKeyPath(t *testing.T) {
	doc, err := ParseDocument([]byte("items:\n  - metadata:\n      id: x\n  - metadata: {}\n  - plain\n"))
	require.NoError(t, err)

	seq := mappingValue(doc.top(), "items")
	require.NotNil(t, seq)
	require.Len(t, seq.Content, 3)

	id := KeyPath("metadata", "id")
	assert.Equal(t, "x", id(seq.Content[0]))
	assert.Empty(t, id(seq.Content[1]))
	assert.Empty(t, id(seq.Content[2]))
}
