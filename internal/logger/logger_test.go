package logger_test

import (
	"testing"

	"github.com/juncdeinda/forgetti/internal/logger"
)

func TestAddErrorMarksHasErrors(t *testing.T) {
	var log logger.Log
	if log.HasErrors() {
		t.Fatalf("empty log should not have errors")
	}
	log.AddError(logger.Loc{Start: 12}, "unsupported LVal shape")
	if !log.HasErrors() {
		t.Fatalf("expected HasErrors() after AddError")
	}
	if len(log.Msgs()) != 1 || log.Msgs()[0].Loc.Start != 12 {
		t.Fatalf("unexpected messages: %+v", log.Msgs())
	}
}

func TestAddWarningDoesNotMarkHasErrors(t *testing.T) {
	var log logger.Log
	log.AddWarning(logger.Loc{Start: 0}, "hook called conditionally")
	if log.HasErrors() {
		t.Fatalf("warnings alone should not count as errors")
	}
}
