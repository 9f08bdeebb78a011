// Package main is a thin demonstrator for the exiftool metadata driver:
// it loads one image's tags and prints them as a sorted two-column table.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/exiftoolbridge/internal/exiftool"
	"github.com/dshills/exiftoolbridge/internal/tags"
)

const (
	nameColumnWidth  = 40
	valueColumnWidth = 30
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: exiftoolcli <image-path>")
		return -1
	}

	helperPath := findHelper()
	if helperPath == "" {
		fmt.Fprintln(os.Stderr, "exiftoolcli: exiftool executable not found on PATH")
		return -1
	}

	sup := exiftool.NewSupervisor(exiftool.Config{HelperPath: helperPath})
	defer sup.Terminate()

	adapter := tags.NewAdapter(sup)
	adapter.SetTranslations(false)

	if !adapter.Load(args[0]) {
		fmt.Fprintf(os.Stderr, "exiftoolcli: load failed: %s\n", adapter.CurrentErrorString())
		return -1
	}

	printTable(adapter.CurrentParsedTags())

	return 0
}

// findHelper locates the exiftool executable, the same search-path idea
// as the original's per-platform default search paths, simplified here to
// a PATH lookup.
func findHelper() string {
	path, err := exec.LookPath("exiftool")
	if err != nil {
		return ""
	}
	return path
}

func printTable(tagMap map[string]tags.TagRecord) {
	rows := make([]string, 0, len(tagMap))
	for name, rec := range tagMap {
		rows = append(rows, fmt.Sprintf("%-*s | %-*s",
			nameColumnWidth, group0Name(name),
			valueColumnWidth, truncate(rec.ValueRaw, valueColumnWidth)))
	}
	sort.Strings(rows)

	for _, row := range rows {
		fmt.Println(row)
	}
}

// group0Name projects a dotted tag name ("group0.group1.group2.name" or
// "group0.group1.group2.type.name") down to "group0.name" — the first and
// last dotted segments — matching the original's
// `it.key().section('.', 0, 0) + '.' + it.key().section('.', -1)`.
func group0Name(dottedName string) string {
	segments := strings.Split(dottedName, ".")
	if len(segments) < 2 {
		return dottedName
	}
	return segments[0] + "." + segments[len(segments)-1]
}

// truncate shortens s to at most width grapheme clusters, appending an
// ellipsis when it does. Using uniseg instead of byte or rune slicing
// avoids splitting combining marks and wide glyphs that exiftool
// descriptions can contain.
func truncate(s string, width int) string {
	g := uniseg.NewGraphemes(s)

	clusters := make([]string, 0, width+1)
	for g.Next() {
		clusters = append(clusters, g.Str())
		if len(clusters) > width {
			break
		}
	}

	if len(clusters) <= width {
		return s
	}

	return joinClusters(clusters[:width-3]) + "..."
}

func joinClusters(clusters []string) string {
	total := 0
	for _, c := range clusters {
		total += len(c)
	}
	buf := make([]byte, 0, total)
	for _, c := range clusters {
		buf = append(buf, c...)
	}
	return string(buf)
}
