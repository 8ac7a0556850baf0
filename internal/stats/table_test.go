package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Action", "Agent", "Human"}
	rows := [][]string{
		{"UP", "12", "3"},
		{"RIGHT", "140", "27"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Action Agent Human" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "UP        12     3" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "RIGHT    140    27" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}
