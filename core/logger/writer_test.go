package logger

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestAsyncWriterFlushCoversQueuedLines(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	defer aw.Close()

	for i := 0; i < 100; i++ {
		if err := aw.Write([]byte(fmt.Sprintf("line %d\n", i))); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got := strings.Count(buf.String(), "\n")
	if got != 100 {
		t.Fatalf("expected 100 lines after flush, got %d", got)
	}
	if !strings.HasSuffix(buf.String(), "line 99\n") {
		t.Fatalf("last line missing: %q", buf.String())
	}
}

func TestFlushWithoutInitIsNoop(t *testing.T) {
	if err := Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}
