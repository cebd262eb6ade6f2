package indexer

import (
	"go.uber.org/zap"

	"github.com/teranos/classdb/logger"
)

// Indeterminate is the progress of a task whose size is not known up front.
const Indeterminate float32 = -1

// ProgressEmitter receives the lifecycle of an indexing task.
// Implementations must be safe to call from the task's goroutine.
type ProgressEmitter interface {
	// EmitStage announces the start of a processing stage
	EmitStage(stage string, message string)

	// EmitProgress reports progress in [0,1], or Indeterminate
	EmitProgress(progress float32, metadata map[string]interface{})

	// EmitComplete announces completion with a summary
	EmitComplete(summary map[string]interface{})

	// EmitError announces an error that did not stop the task
	EmitError(stage string, err error)
}

type nopEmitter struct{}

func (nopEmitter) EmitStage(string, string)                     {}
func (nopEmitter) EmitProgress(float32, map[string]interface{}) {}
func (nopEmitter) EmitComplete(map[string]interface{})          {}
func (nopEmitter) EmitError(string, error)                      {}

// LogEmitter writes progress events to a zap logger.
type LogEmitter struct {
	log *zap.SugaredLogger
}

// NewLogEmitter creates an emitter logging through log, or the indexer
// component logger when log is nil.
func NewLogEmitter(log *zap.SugaredLogger) *LogEmitter {
	if log == nil {
		log = logger.ComponentLogger("indexer")
	}
	return &LogEmitter{log: log}
}

func (e *LogEmitter) EmitStage(stage, message string) {
	e.log.Debugw(message, "stage", stage)
}

func (e *LogEmitter) EmitProgress(progress float32, metadata map[string]interface{}) {
	e.log.Debugw("Indexing progress", flatten(metadata, "progress", progress)...)
}

func (e *LogEmitter) EmitComplete(summary map[string]interface{}) {
	e.log.Infow("Indexing complete", flatten(summary)...)
}

func (e *LogEmitter) EmitError(stage string, err error) {
	e.log.Warnw("Indexing error", "stage", stage, logger.FieldError, err)
}

func flatten(m map[string]interface{}, kv ...interface{}) []interface{} {
	for k, v := range m {
		kv = append(kv, k, v)
	}
	return kv
}
