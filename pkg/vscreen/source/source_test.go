package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/vscreen/pkg/vscreen/types"
)

const nested = `
columns: [ticker, company, pe]
universe:
  - KO
  - name: tech
    universe:
      - AAPL
      - sym: msft
        note: cloud
      - name: semis
        universe: [NVDA, AMD]
  - name: banks
    universe:
      - JPM
`

func TestParse_NestedGroups(t *testing.T) {
	lists, err := Parse([]byte(nested))
	require.NoError(t, err)
	require.Len(t, lists, 4)

	assert.Equal(t, "", lists[0].Name)
	assert.Equal(t, "KO", lists[0].Items[0].Sym)
	assert.Equal(t, []string{"ticker", "company", "pe"}, lists[0].Columns)

	assert.Equal(t, "tech", lists[1].Name)
	require.Len(t, lists[1].Items, 2)
	assert.Equal(t, "cloud", lists[1].Items[1].Fields["note"])

	assert.Equal(t, "tech/semis", lists[2].Name)
	assert.Equal(t, "banks", lists[3].Name)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("columns: [a]\n"))
	assert.ErrorContains(t, err, "missing 'universe'")

	_, err = Parse([]byte("universe:\n  - note: nothing\n"))
	assert.ErrorContains(t, err, "neither sym nor universe")
}

func TestYAMLSource_FileAndDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "us"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "us", "mega.yaml"), []byte(nested), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eu.yml"), []byte("universe: [ASML, NVS]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	lists, err := YAMLSource{}.Load(context.Background(), filepath.Join(dir, "us", "mega.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "mega", lists[0].Name)
	assert.Equal(t, "tech", lists[1].Name)

	lists, err = YAMLSource{}.Load(context.Background(), dir)
	require.NoError(t, err)
	names := make([]string, len(lists))
	for i, l := range lists {
		names[i] = l.Name
	}
	assert.Equal(t, []string{"eu", "us/mega", "us/mega/tech", "us/mega/tech/semis", "us/mega/banks"}, names)

	_, err = YAMLSource{}.Load(context.Background(), 42)
	assert.Error(t, err)
}

func TestStaticSource(t *testing.T) {
	lists, err := StaticSource{}.Load(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, DefaultUniverseName, lists[0].Name)
	assert.Len(t, lists[0].Items, 34)

	lists, err = StaticSource{}.Load(context.Background(), []string{"KO"})
	require.NoError(t, err)
	assert.Equal(t, "args", lists[0].Name)
	assert.Equal(t, "KO", lists[0].Items[0].Sym)
}

func TestTickers_DedupesInOrder(t *testing.T) {
	lists := []types.Universe{
		{Items: []types.Item{{Sym: "msft"}, {Sym: " AAPL "}, {Sym: ""}}},
		{Items: []types.Item{{Sym: "MSFT"}, {Sym: "KO"}}},
	}
	assert.Equal(t, []string{"MSFT", "AAPL", "KO"}, Tickers(lists))
}
