package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pevans/fairscrape/crawl"
)

// maxErrorRows caps how many row failures are listed after a run.
const maxErrorRows = 20

// printReport prints a phase summary and the first row failures
func printReport(title string, report *crawl.Report) {
	if report == nil {
		return
	}

	marker := "✓"
	switch report.Status() {
	case crawl.StatusPartial:
		marker = "⚠"
	case crawl.StatusFailed:
		marker = "✗"
	}

	fmt.Println()
	fmt.Printf("%s %s: %s\n", marker, title, report.Status())

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	if report.Categories > 0 {
		t.AppendRow(table.Row{"Categories", report.Categories})
		t.AppendRow(table.Row{"Categories skipped", report.CategoriesSkipped})
		t.AppendRow(table.Row{"Categories incomplete", report.PartialCategories})
		t.AppendRow(table.Row{"Categories failed", report.FailedCategories})
	}
	if report.Registered > 0 {
		t.AppendRow(table.Row{"Registered", report.Registered})
	}
	t.AppendRow(table.Row{"Scraped", report.Scraped})
	t.AppendRow(table.Row{"Skipped", report.Skipped})
	t.AppendRow(table.Row{"Failed", report.Failed})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(report.Errors) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Failures:")
	for i, rowErr := range report.Errors {
		if i == maxErrorRows {
			fmt.Printf("  ... and %d more\n", len(report.Errors)-maxErrorRows)
			break
		}
		fmt.Printf("  %s\n", truncate(rowErr.Error(), 160))
	}
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
