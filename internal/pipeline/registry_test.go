package pipeline_test

import (
	"reflect"
	"testing"

	"github.com/gridsweep/gridsweep/internal/pipeline"
)

func TestDefaultRegistryHasSmoke(t *testing.T) {
	factory, err := pipeline.Default.Lookup("smoke")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if factory == nil {
		t.Fatal("expected a factory")
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := pipeline.Default.Lookup("does-not-exist")
	if err == nil {
		t.Error("expected error for unregistered manager")
	}
}

func TestRegisterAndNames(t *testing.T) {
	r := pipeline.NewRegistry()
	r.Register("zeta", pipeline.SmokeFactory{})
	r.Register("alpha", pipeline.SmokeFactory{})

	if !reflect.DeepEqual(r.Names(), []string{"alpha", "zeta"}) {
		t.Errorf("expected sorted names, got %v", r.Names())
	}
	if _, err := r.Lookup("alpha"); err != nil {
		t.Errorf("Lookup alpha: %v", err)
	}
}
