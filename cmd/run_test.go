package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gridsweep/gridsweep/internal/result"
)

func TestStoreReport(t *testing.T) {
	base := t.TempDir()
	set := result.NewExperimentResultSet()
	set.Add("lr=0.1", &result.Aggregate{
		Runs:    2,
		Scalars: map[string]result.ScalarStat{"test_loss": {Mean: 0.4, Std: 0.02, Count: 2}},
	})

	if err := storeReport(base, set); err != nil {
		t.Fatalf("storeReport: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(base, "latest", "report.json"))
	if err != nil {
		t.Fatalf("reading report via latest symlink: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("parsing report: %v", err)
	}
	if len(entries) != 1 || entries[0]["label"] != "lr=0.1" {
		t.Errorf("unexpected report contents: %v", entries)
	}
}

func TestNewLogger(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		logger, err := newLogger(verbose)
		if err != nil {
			t.Fatalf("newLogger(%v): %v", verbose, err)
		}
		if logger == nil {
			t.Fatalf("newLogger(%v): nil logger", verbose)
		}
	}
}
