package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/pngsquare/pkg/pipeline"
)

func captureUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := uiOut
	uiOut = &buf
	t.Cleanup(func() { uiOut = prev })
	return &buf
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name   string
		cached bool
		want   []string
	}{
		{"fresh", false, []string{"2 sprites", "48x32", "83.3% used", "fresh"}},
		{"cached", true, []string{"2 sprites", "cached"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureUI(t)
			printStats(pipeline.Stats{SpriteCount: 2, Efficiency: 1280.0 / 1536.0}, 48, 32, tt.cached)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("stats %q should contain %q", buf.String(), want)
				}
			}
		})
	}
}

func TestStatusLines(t *testing.T) {
	buf := captureUI(t)

	printSuccess("Packed %s", "textures")
	printWarning("Overlap check skipped")
	printFile("out/textures.png")
	printKeyValue("Canvas", "48x32 px")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	checks := []struct{ icon, text string }{
		{iconSuccess, "Packed textures"},
		{iconWarning, "Overlap check skipped"},
		{iconArrow, "out/textures.png"},
		{"Canvas", "48x32 px"},
	}
	for i, c := range checks {
		if !strings.Contains(lines[i], c.icon) || !strings.Contains(lines[i], c.text) {
			t.Errorf("line %d = %q, want %q and %q", i, lines[i], c.icon, c.text)
		}
	}
}
