package logtail

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLast(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "livelog.log")

	var content strings.Builder
	var all []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf(`{"level":"info","n":%d}`, i)
		content.WriteString(line + "\n")
		all = append(all, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"all (0)", 0, all},
		{"all (negative)", -1, all},
		{"partial", 5, all[5:]},
		{"exactly all", 10, all},
		{"more than exists", 20, all},
		{"one", 1, all[9:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Last(logPath, tt.n)
			if err != nil {
				t.Fatalf("Last() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Last() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLast_MissingFile(t *testing.T) {
	_, err := Last(filepath.Join(t.TempDir(), "nope.log"), 10)
	if !errors.Is(err, ErrNoLog) {
		t.Fatalf("Last() error = %v, want ErrNoLog", err)
	}
}

func TestLastLines_NoTrailingNewline(t *testing.T) {
	got, err := lastLines(strings.NewReader("a\nb\nc"), 2)
	if err != nil {
		t.Fatalf("lastLines() error = %v", err)
	}
	if want := []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("lastLines() = %v, want %v", got, want)
	}
}

func TestLastLines_Empty(t *testing.T) {
	got, err := lastLines(strings.NewReader(""), 3)
	if err != nil {
		t.Fatalf("lastLines() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("lastLines() = %v, want empty", got)
	}
}
