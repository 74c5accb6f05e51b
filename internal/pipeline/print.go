package pipeline

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// console column widths (display cells)
const (
	printTitleWidth   = 70
	printSummaryWidth = 60
	printLinkWidth    = 80
)

// PrintRecords はレコードをレイアウトの列順で表形式に出力する
func PrintRecords(w io.Writer, layout Layout, records []Record) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)

	table.Header(layout.Header())
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, printRow(layout, r))
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// PrintReports はソースごとの処理結果を表形式で出力する
func PrintReports(w io.Writer, reports []SourceReport) error {
	table := tablewriter.NewTable(w)
	table.Header([]string{"Source", "Profile", "Outcome", "Records"})
	for _, rep := range reports {
		if err := table.Append([]string{
			truncateDisplay(rep.URL, printLinkWidth),
			rep.Profile,
			rep.Outcome(),
			strconv.Itoa(rep.Records),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintRules はプロファイル一覧を表形式で出力する
func PrintRules(w io.Writer, rules *RuleSet) error {
	table := tablewriter.NewTable(w)
	table.Header([]string{"Profile", "Kind", "Hosts", "Landmark"})
	for _, r := range rules.Rules() {
		if err := table.Append([]string{r.Name, string(r.Kind), strings.Join(r.Hosts, ", "), r.Landmark}); err != nil {
			return err
		}
	}
	return table.Render()
}

func printRow(layout Layout, r Record) []string {
	r.Title = truncateDisplay(r.Title, printTitleWidth)
	r.Summary = truncateDisplay(r.Summary, printSummaryWidth)
	r.Link = truncateDisplay(r.Link, printLinkWidth)
	r.URL = truncateDisplay(r.URL, printLinkWidth)
	return layout.Row(r)
}
