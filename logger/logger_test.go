package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitFallsBackToInfo(t *testing.T) {
	Init("not-a-level")
	if log == nil {
		t.Fatal("log not initialized")
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %v", log.GetLevel())
	}

	Init("debug")
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", log.GetLevel())
	}
}

func TestLevelFiltering(t *testing.T) {
	Init("warn")
	var buf bytes.Buffer
	log.SetOutput(&buf)
	// Avoid os.Exit on Fatal
	log.ExitFunc = func(int) {}

	Debug("hidden debug")
	Info("hidden info")
	Debugf("%s", "hidden debugf")
	Infof("%s", "hidden infof")
	if buf.Len() != 0 {
		t.Fatalf("below-level output leaked: %q", buf.String())
	}

	Warn("visible warn")
	Warnf("%s", "visible warnf")
	Error("visible error")
	Errorf("%s", "visible errorf")
	Fatal("visible fatal")
	Fatalf("%s", "visible fatalf")

	out := buf.String()
	for _, want := range []string{"visible warn", "visible warnf", "visible error", "visible errorf", "visible fatal", "visible fatalf"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output: %q", want, out)
		}
	}
}

func TestEnsureInitializesLazily(t *testing.T) {
	log = nil
	Info("lazy init")
	if log == nil {
		t.Fatal("ensure did not initialize the logger")
	}
}
