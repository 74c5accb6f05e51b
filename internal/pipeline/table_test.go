package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable_News(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "fca_news.csv")
	records := []Record{
		{Date: "14/03/2025", Title: "Fines, penalties and \"redress\"", Link: "https://www.fca.org.uk/news/a"},
		{Date: "12/03/2025", Title: "Plain title", Link: "https://www.fca.org.uk/news/b"},
	}

	wr, err := WriteTable(path, LayoutNews, records)
	require.NoError(t, err)
	assert.Equal(t, WriteResult{Path: path, Rows: 2}, wr)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Date,Title,Link\n"+
			"14/03/2025,\"Fines, penalties and \"\"redress\"\"\",https://www.fca.org.uk/news/a\n"+
			"12/03/2025,Plain title,https://www.fca.org.uk/news/b\n",
		string(raw))

	header, rows, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Title", "Link"}, header)
	expected := [][]string{
		{"14/03/2025", "Fines, penalties and \"redress\"", "https://www.fca.org.uk/news/a"},
		{"12/03/2025", "Plain title", "https://www.fca.org.uk/news/b"},
	}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTable_UpdatesColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fca_updates.csv")
	_, err := WriteTable(path, LayoutUpdates, []Record{{
		Date:    "12/11/2024",
		Title:   "Sanctions",
		Link:    "https://www.fca.org.uk/p#sanctions",
		URL:     "https://www.fca.org.uk/p",
		Summary: "line one\nline two",
	}})
	require.NoError(t, err)

	header, rows, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "URL", "Date", "Summary"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Sanctions", "https://www.fca.org.uk/p", "12/11/2024", "line one\nline two"}, rows[0])
}

func TestWriteTable_EmptyWritesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fca_news.csv")
	wr, err := WriteTable(path, LayoutNews, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, wr.Rows)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Date,Title,Link\n", string(raw))
}

func TestWriteTable_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fca_news.csv")
	_, err := WriteTable(path, LayoutNews, []Record{{Title: "a"}, {Title: "b"}, {Title: "c"}})
	require.NoError(t, err)
	_, err = WriteTable(path, LayoutNews, []Record{{Title: "only"}})
	require.NoError(t, err)

	_, rows, err := ReadTable(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "only", rows[0][1])
}

func TestReadTable_Missing(t *testing.T) {
	_, _, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
