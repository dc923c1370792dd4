package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenegraph/pkg/config"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		debug bool
		want  bool
	}{
		{"InfoAtInfo", log.InfoLevel, false, true},
		{"DebugAtInfo", log.InfoLevel, true, false},
		{"DebugAtDebug", log.DebugLevel, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, tt.level)
			if tt.debug {
				l.Debug("layout", "scenes", 3)
			} else {
				l.Info("layout", "scenes", 3)
			}
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	l.SetFormatter(formatter(config.LogJSON))
	l.Info("computed layout", "scenes", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json formatter output %q: %v", buf.String(), err)
	}
	if entry["msg"] != "computed layout" || entry["scenes"] != float64(3) {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	l.SetFormatter(formatter(config.LogLogfmt))
	l.Info("computed layout", "scenes", 3)
	if !strings.Contains(buf.String(), "scenes=3") {
		t.Errorf("logfmt output = %q", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	p.done("Computed layout", "scenes", 3)

	out := buf.String()
	for _, want := range []string{"Computed layout", "scenes=3", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q lacks %q", out, want)
		}
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should yield log.Default()")
	}

	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if got := loggerFromContext(withLogger(context.Background(), l)); got != l {
		t.Error("loggerFromContext did not return the attached logger")
	}
}
