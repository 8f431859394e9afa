package tree

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustParse(t testing.TB, text string) Node {
	node, err := Parse([]byte(text))
	if err != nil {
		t.Fatal(err)
	}
	return node
}

func TestParseKeepsKeyOrder(t *testing.T) {
	root := mustParse(t, `{"zeta": 1, "alpha": {"b": true, "a": null}, "mid": ["x", 2.5]}`)

	require.Equal(t, KindMapping, root.Kind())
	require.Equal(t, []string{"zeta", "alpha", "mid"}, root.Keys())
	require.Equal(t, []string{"b", "a"}, root.Get("alpha").Keys())

	n, ok := root.Get("zeta").Int()
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	b, ok := root.At(Path{"alpha", "b"}).Bool()
	require.True(t, ok)
	require.True(t, b)

	require.True(t, root.At(Path{"alpha", "a"}).IsAbsent())
	require.Equal(t, "x", root.At(Path{"mid", "0"}).Text())

	f, ok := root.At(Path{"mid", "1"}).Number()
	require.True(t, ok)
	require.Equal(t, 2.5, f)
}

func TestWrongKindIsAbsent(t *testing.T) {
	root := mustParse(t, `{"list": [1, 2], "text": "hello", "num": 3}`)

	cases := []struct {
		name string
		node Node
	}{
		{name: "get on sequence", node: root.Get("list").Get("x")},
		{name: "index on mapping", node: root.Index(0)},
		{name: "index out of range", node: root.Get("list").Index(5)},
		{name: "negative index", node: root.Get("list").Index(-1)},
		{name: "get on scalar", node: root.Get("text").Get("x")},
		{name: "path through scalar", node: root.At(Path{"num", "x"})},
		{name: "non numeric index", node: root.At(Path{"list", "first"})},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.True(t, test.node.IsAbsent())
			require.Equal(t, 0, test.node.Len())
		})
	}

	_, ok := root.Get("num").String()
	require.False(t, ok)
	_, ok = root.Get("text").Number()
	require.False(t, ok)
	require.Nil(t, root.Get("text").Items())
	require.Nil(t, root.Get("list").Keys())
}

func TestGetFold(t *testing.T) {
	root := mustParse(t, `{"TagCloud": [1], "tagcloud": [2]}`)
	n, _ := root.GetFold("tagCloud").Index(0).Int()
	require.Equal(t, int64(1), n)
	n, _ = root.GetFold("tagcloud").Index(0).Int()
	require.Equal(t, int64(2), n)
	require.True(t, root.GetFold("missing").IsAbsent())
}

func TestWalkOrder(t *testing.T) {
	root := mustParse(t, `{"b": {"y": 1, "x": [true]}, "a": 2}`)

	var visited []string
	Walk(root, func(path Path, node Node) bool {
		visited = append(visited, path.String())
		return true
	})

	expected := []string{"", "b", "b.y", "b.x", "b.x.0", "a"}
	if diff := cmp.Diff(expected, visited); diff != "" {
		t.Fatal(diff)
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	root := mustParse(t, `{"skip": {"inner": 1}, "keep": {"inner": 2}}`)

	var visited []string
	Walk(root, func(path Path, node Node) bool {
		visited = append(visited, path.String())
		return path.Last() != "skip"
	})
	require.Equal(t, []string{"", "skip", "keep", "keep.inner"}, visited)
}

func TestFindNamedArrays(t *testing.T) {
	root := mustParse(t, `{
		"container": {
			"json_dict": {
				"cardlists": [
					{"header": "Creatures", "cardviews": [{"name": "Sol Ring"}, {"name": "Arcane Signet"}]},
					{"header": "Empty", "cardviews": []}
				]
			}
		},
		"mixed": [{"name": "A"}, {"other": "B"}],
		"blank": [{"name": "  "}]
	}`)

	matches := FindNamedArrays(root, KeyNamer{"name"})
	require.Len(t, matches, 1)
	require.Equal(t, "container.json_dict.cardlists.0.cardviews", matches[0].Path.String())
	require.Equal(t, 2, matches[0].Node.Len())
}

func TestFindNamedArraysDoesNotDescendIntoMatches(t *testing.T) {
	root := mustParse(t, `{"outer": [{"name": "A", "children": [{"name": "B"}]}]}`)

	matches := FindNamedArrays(root, KeyNamer{"name"})
	require.Len(t, matches, 1)
	require.Equal(t, "outer", matches[0].Path.String())
}

func TestKeyNamerFallback(t *testing.T) {
	namer := KeyNamer{"name", "label"}
	name, ok := namer.Name(FromValue(map[string]any{"label": "Ramp"}))
	require.True(t, ok)
	require.Equal(t, "Ramp", name)

	_, ok = namer.Name(FromValue("Ramp"))
	require.False(t, ok)
}

func TestFindKey(t *testing.T) {
	root := mustParse(t, `{"props": {"pageProps": {"data": {"panels": {"links": []}}}}}`)

	match, ok := FindKey(root, "panels")
	require.True(t, ok)
	require.Equal(t, "props.pageProps.data.panels", match.Path.String())
	require.Equal(t, KindMapping, match.Node.Kind())

	_, ok = FindKey(root, "tagCloud")
	require.False(t, ok)

	match, ok = FindKey(mustParse(t, `{"x": {"TAGS": [2]}}`), "tags")
	require.True(t, ok)
	require.Equal(t, "x.TAGS", match.Path.String())
}

func TestAncestors(t *testing.T) {
	root := mustParse(t, `{"a": {"header": "H", "list": [{"name": "x"}]}}`)
	ancestors := Ancestors(root, Path{"a", "list", "0"})
	require.Len(t, ancestors, 3)
	require.Equal(t, "H", ancestors[1].Get("header").Text())
	require.Equal(t, KindSequence, ancestors[2].Kind())
}

func TestMarshalKeepsOrder(t *testing.T) {
	text := `{"z":1,"a":[true,"s",null],"m":{"k":2.5}}`
	root := mustParse(t, text)

	out, err := json.Marshal(root)
	require.NoError(t, err)
	require.Equal(t, text, string(out))
}

func TestFromValueSortsKeys(t *testing.T) {
	node := FromValue(map[string]any{"b": 1, "a": []any{"x"}, "c": nil})
	require.Equal(t, []string{"a", "b", "c"}, node.Keys())
	require.True(t, node.Get("c").IsAbsent())
	require.Equal(t, "x", node.At(Path{"a", "0"}).Text())
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`{"a": [1, 2}`))
	require.Error(t, err)
}
