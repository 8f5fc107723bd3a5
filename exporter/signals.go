package exporter

import (
	"context"
	"time"

	"github.com/zoobzio/calico"
	"github.com/zoobzio/capitan"
)

// Signals for conversion events.
var (
	SignalEncodeStart      = capitan.NewSignal("calico.encode.start", "Encode operation beginning")
	SignalEncodeComplete   = capitan.NewSignal("calico.encode.complete", "Encode operation finished")
	SignalDecodeStart      = capitan.NewSignal("calico.decode.start", "Decode operation beginning")
	SignalDecodeComplete   = capitan.NewSignal("calico.decode.complete", "Decode operation finished")
	SignalValidationFailed = capitan.NewSignal("calico.validation.failed", "Value rejected by schema")
	SignalWorkerDispatch   = capitan.NewSignal("calico.worker.dispatch", "Operation handed to the worker")
	SignalWorkerStopped    = capitan.NewSignal("calico.worker.stopped", "Worker shut down and pending operations rejected")
)

// Keys for typed event data.
var (
	KeyFormat     = capitan.NewStringKey("format")
	KeySize       = capitan.NewIntKey("size")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyError      = capitan.NewErrorKey("error")
	KeyPath       = capitan.NewStringKey("path")
	KeyViolations = capitan.NewIntKey("violations")
	KeyRequestID  = capitan.NewStringKey("request_id")
	KeyPending    = capitan.NewIntKey("pending")
)

// emitEncodeStart emits an event when an encode begins.
func emitEncodeStart(ctx context.Context, f calico.Format) {
	capitan.Emit(ctx, SignalEncodeStart, KeyFormat.Field(string(f)))
}

// emitEncodeComplete emits an event when an encode finishes.
func emitEncodeComplete(ctx context.Context, f calico.Format, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyFormat.Field(string(f)),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalEncodeComplete, fields...)
	}
}

// emitDecodeStart emits an event when a decode begins.
func emitDecodeStart(ctx context.Context, f calico.Format, size int) {
	capitan.Emit(ctx, SignalDecodeStart,
		KeyFormat.Field(string(f)),
		KeySize.Field(size),
	)
}

// emitDecodeComplete emits an event when a decode finishes.
func emitDecodeComplete(ctx context.Context, f calico.Format, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyFormat.Field(string(f)),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDecodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDecodeComplete, fields...)
	}
}

// emitValidationFailed emits an event carrying the first violation.
func emitValidationFailed(ctx context.Context, path string, violations int) {
	capitan.Error(ctx, SignalValidationFailed,
		KeyPath.Field(path),
		KeyViolations.Field(violations),
	)
}

// emitWorkerDispatch emits an event when an operation is queued for the worker.
func emitWorkerDispatch(ctx context.Context, f calico.Format, id string) {
	capitan.Emit(ctx, SignalWorkerDispatch,
		KeyFormat.Field(string(f)),
		KeyRequestID.Field(id),
	)
}

// emitWorkerStopped emits an event when the worker goes away.
func emitWorkerStopped(ctx context.Context, pending int, err error) {
	capitan.Error(ctx, SignalWorkerStopped,
		KeyPending.Field(pending),
		KeyError.Field(err),
	)
}
