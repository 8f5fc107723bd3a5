package exporter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/calico"
)

func TestEmitEncodeStart(_ *testing.T) {
	// Should not panic
	emitEncodeStart(context.Background(), calico.FormatJSON)
}

func TestEmitEncodeComplete_Success(_ *testing.T) {
	emitEncodeComplete(context.Background(), calico.FormatYAML, 1024, 100*time.Millisecond, nil)
}

func TestEmitEncodeComplete_Error(_ *testing.T) {
	emitEncodeComplete(context.Background(), calico.FormatCSV, 0, 100*time.Millisecond, errors.New("test error"))
}

func TestEmitDecodeStart(_ *testing.T) {
	emitDecodeStart(context.Background(), calico.FormatJSON, 512)
}

func TestEmitDecodeComplete_Success(_ *testing.T) {
	emitDecodeComplete(context.Background(), calico.FormatJSON, 512, 100*time.Millisecond, nil)
}

func TestEmitDecodeComplete_Error(_ *testing.T) {
	emitDecodeComplete(context.Background(), calico.FormatYAML, 512, 100*time.Millisecond, errors.New("test error"))
}

func TestEmitValidationFailed(_ *testing.T) {
	emitValidationFailed(context.Background(), "root.age", 2)
}

func TestEmitWorkerDispatch(_ *testing.T) {
	emitWorkerDispatch(context.Background(), calico.FormatMarkdown, "req-1")
}

func TestEmitWorkerStopped(_ *testing.T) {
	emitWorkerStopped(context.Background(), 3, calico.ErrWorkerClosed)
}

func TestSignalVariables(t *testing.T) {
	// Verify signals are properly initialized
	signals := []struct {
		name   string
		signal interface{}
	}{
		{"SignalEncodeStart", SignalEncodeStart},
		{"SignalEncodeComplete", SignalEncodeComplete},
		{"SignalDecodeStart", SignalDecodeStart},
		{"SignalDecodeComplete", SignalDecodeComplete},
		{"SignalValidationFailed", SignalValidationFailed},
		{"SignalWorkerDispatch", SignalWorkerDispatch},
		{"SignalWorkerStopped", SignalWorkerStopped},
	}

	for _, s := range signals {
		if s.signal == nil {
			t.Errorf("%s is nil", s.name)
		}
	}
}

func TestKeyVariables(t *testing.T) {
	keys := []struct {
		name string
		key  interface{}
	}{
		{"KeyFormat", KeyFormat},
		{"KeySize", KeySize},
		{"KeyDuration", KeyDuration},
		{"KeyError", KeyError},
		{"KeyPath", KeyPath},
		{"KeyViolations", KeyViolations},
		{"KeyRequestID", KeyRequestID},
		{"KeyPending", KeyPending},
	}

	for _, k := range keys {
		if k.key == nil {
			t.Errorf("%s is nil", k.name)
		}
	}
}
