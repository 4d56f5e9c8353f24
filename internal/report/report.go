package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/gridsweep/gridsweep/internal/result"
)

// Generate renders an experiment's collated aggregates. Rows follow grid
// order; columns are the union of scalar metrics across configurations.
func Generate(set *result.ExperimentResultSet, format string, w io.Writer) error {
	switch format {
	case "markdown":
		return writeMarkdown(set, w)
	case "json":
		return writeJSON(set, w)
	default:
		return writeTable(set, w)
	}
}

func metricNames(set *result.ExperimentResultSet) []string {
	seen := make(map[string]bool)
	for _, label := range set.Labels() {
		agg, _ := set.Get(label)
		for name := range agg.Scalars {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cell formats mean±std, flagging metrics not reported by every run.
func cell(agg *result.Aggregate, metric string) string {
	stat, ok := agg.Scalars[metric]
	if !ok {
		return "-"
	}
	s := fmt.Sprintf("%.4f±%.4f", stat.Mean, stat.Std)
	if stat.Count < agg.Runs {
		s += fmt.Sprintf(" (n=%d)", stat.Count)
	}
	return s
}

func writeTable(set *result.ExperimentResultSet, w io.Writer) error {
	metrics := metricNames(set)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "CONFIGURATION\tRUNS"
	for _, m := range metrics {
		header += "\t" + strings.ToUpper(m)
	}
	fmt.Fprintln(tw, header)
	fmt.Fprintln(tw, strings.Repeat("-", 80))
	for _, label := range set.Labels() {
		agg, _ := set.Get(label)
		row := fmt.Sprintf("%s\t%d", label, agg.Runs)
		for _, m := range metrics {
			row += "\t" + cell(agg, m)
		}
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}

func writeMarkdown(set *result.ExperimentResultSet, w io.Writer) error {
	metrics := metricNames(set)
	fmt.Fprint(w, "| Configuration | Runs |")
	for _, m := range metrics {
		fmt.Fprintf(w, " %s |", m)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, "|---|---|")
	for range metrics {
		fmt.Fprint(w, "---|")
	}
	fmt.Fprintln(w)
	for _, label := range set.Labels() {
		agg, _ := set.Get(label)
		fmt.Fprintf(w, "| %s | %d |", label, agg.Runs)
		for _, m := range metrics {
			fmt.Fprintf(w, " %s |", cell(agg, m))
		}
		fmt.Fprintln(w)
	}
	return nil
}

type entry struct {
	Label string `json:"label"`
	*result.Aggregate
}

func writeJSON(set *result.ExperimentResultSet, w io.Writer) error {
	entries := make([]entry, 0, set.Len())
	for _, label := range set.Labels() {
		agg, _ := set.Get(label)
		entries = append(entries, entry{Label: label, Aggregate: agg})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
