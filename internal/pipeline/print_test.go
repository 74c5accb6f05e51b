package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	err := PrintRecords(&buf, LayoutNews, []Record{
		{Date: "14/03/2025", Title: strings.Repeat("long title ", 20), Link: "https://www.fca.org.uk/news/a"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "DATE")
	assert.Contains(t, out, "14/03/2025")
	assert.Contains(t, out, "https://www.fca.org.uk/news/a")
	assert.Contains(t, out, "...")
}

func TestPrintReports(t *testing.T) {
	var buf bytes.Buffer
	err := PrintReports(&buf, []SourceReport{
		{URL: "https://www.fca.org.uk/p", Profile: "fca-publication", Status: StatusMatched, Records: 3},
		{URL: "https://www.fca.org.uk/p.pdf", Err: errors.Join(ErrSkippedFile)},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "matched")
	assert.Contains(t, buf.String(), "skipped-file")
}

func TestPrintRules(t *testing.T) {
	rules, err := DefaultRules()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrintRules(&buf, rules))
	assert.Contains(t, buf.String(), "legislation-new")
	assert.Contains(t, buf.String(), "legislation.gov.uk")
}
