package diff_test

import (
	"reflect"
	"testing"

	"github.com/bkyoung/review-bot/internal/diff"
)

func TestParse_SingleHunk(t *testing.T) {
	patch := `@@ -10,3 +10,4 @@ func example() {
 context line
+added line
 another context
+second addition
`

	parsed, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(parsed.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(parsed.Hunks))
	}

	hunk := parsed.Hunks[0]
	if hunk.NewStart != 10 {
		t.Errorf("expected NewStart=10, got %d", hunk.NewStart)
	}

	// Should have 4 lines: context, addition, context, addition
	if len(hunk.Lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(hunk.Lines))
	}
}

func TestParse_MultipleHunks_PositionNotReset(t *testing.T) {
	patch := `@@ -10,2 +10,3 @@ func first() {
 context
+added
@@ -20,2 +21,3 @@ func second() {
 context
+added
`

	parsed, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(parsed.Hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(parsed.Hunks))
	}

	if parsed.Hunks[0].NewStart != 10 {
		t.Errorf("hunk 0: expected NewStart=10, got %d", parsed.Hunks[0].NewStart)
	}
	if parsed.Hunks[1].NewStart != 21 {
		t.Errorf("hunk 1: expected NewStart=21, got %d", parsed.Hunks[1].NewStart)
	}

	// Positions continue across hunks; only the headers are uncounted.
	// Hunk 1 lines sit at positions 1-2, hunk 2 lines at positions 3-4.
	if got := parsed.Hunks[1].Lines[0].Position; got != 3 {
		t.Errorf("expected hunk 2 first line at position 3, got %d", got)
	}

	want := map[int]int{11: 2, 22: 4}
	if got := parsed.LineMap(); !reflect.DeepEqual(got, want) {
		t.Errorf("LineMap() = %v, want %v", got, want)
	}
}

func TestBuildLineMap_AdditionBetweenContext(t *testing.T) {
	// Line 2 of the new file (the addition) maps to diff position 2;
	// lines 1 and 3 are context and not mapped.
	patch := "@@ -1,2 +1,3 @@\n a\n+b\n c\n"

	want := map[int]int{2: 2}
	if got := diff.BuildLineMap(patch); !reflect.DeepEqual(got, want) {
		t.Errorf("BuildLineMap() = %v, want %v", got, want)
	}
}

func TestBuildLineMap_DeletionConsumesPosition(t *testing.T) {
	// The deletion consumes position 1, so the replacement addition at
	// file line 1 lands on position 2.
	patch := "@@ -1,1 +1,1 @@\n-old\n+new\n"

	want := map[int]int{1: 2}
	if got := diff.BuildLineMap(patch); !reflect.DeepEqual(got, want) {
		t.Errorf("BuildLineMap() = %v, want %v", got, want)
	}
}

func TestBuildLineMap_ContextOnlyPatch(t *testing.T) {
	patch := "@@ -1,3 +1,3 @@\n a\n b\n c\n"

	if got := diff.BuildLineMap(patch); len(got) != 0 {
		t.Errorf("expected empty map for context-only patch, got %v", got)
	}
}

func TestBuildLineMap_EmptyPatch(t *testing.T) {
	// Binary files and rename-only entries carry no patch fragment.
	if got := diff.BuildLineMap(""); len(got) != 0 {
		t.Errorf("expected empty map for empty patch, got %v", got)
	}
}

func TestBuildLineMap_NewFile(t *testing.T) {
	patch := "@@ -0,0 +1,3 @@\n+line one\n+line two\n+line three\n"

	want := map[int]int{1: 1, 2: 2, 3: 3}
	if got := diff.BuildLineMap(patch); !reflect.DeepEqual(got, want) {
		t.Errorf("BuildLineMap() = %v, want %v", got, want)
	}
}

func TestBuildLineMap_DeletionsNeverMapped(t *testing.T) {
	patch := "@@ -1,4 +1,3 @@\n a\n-gone\n-also gone\n+kept\n b\n"

	got := diff.BuildLineMap(patch)
	want := map[int]int{2: 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildLineMap() = %v, want %v", got, want)
	}
}

func TestBuildLineMap_BlankContextLineConsumesPosition(t *testing.T) {
	// Some producers emit blank context lines as "" instead of " ". The
	// blank line occupies position 2 and file line 2, so the addition
	// at file line 4 lands on position 4.
	patch := "@@ -1,3 +1,4 @@\n a\n\n c\n+d\n"

	want := map[int]int{4: 4}
	if got := diff.BuildLineMap(patch); !reflect.DeepEqual(got, want) {
		t.Errorf("BuildLineMap() = %v, want %v", got, want)
	}
}

func TestBuildLineMap_NoNewlineMarkerConsumesPosition(t *testing.T) {
	// The marker belongs to neither file side but still occupies a diff
	// position, pushing the addition to position 3.
	patch := "@@ -1,1 +1,1 @@\n-old\n\\ No newline at end of file\n+new\n"

	want := map[int]int{1: 3}
	if got := diff.BuildLineMap(patch); !reflect.DeepEqual(got, want) {
		t.Errorf("BuildLineMap() = %v, want %v", got, want)
	}
}

func TestBuildLineMap_Deterministic(t *testing.T) {
	patch := "@@ -1,2 +1,3 @@\n a\n+b\n c\n@@ -10,1 +11,2 @@\n ctx\n+tail\n"

	first := diff.BuildLineMap(patch)
	second := diff.BuildLineMap(patch)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical maps on repeated calls: %v vs %v", first, second)
	}
}

func TestParse_SkipsFileHeaders(t *testing.T) {
	patch := `diff --git a/main.go b/main.go
index 83db48f..bf269f4 100644
--- a/main.go
+++ b/main.go
@@ -1,2 +1,3 @@
 package main
+// added
 func main() {}
`

	parsed, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(parsed.Hunks))
	}
	// Headers must not advance the position counter.
	if got := parsed.Hunks[0].Lines[0].Position; got != 1 {
		t.Errorf("expected first hunk line at position 1, got %d", got)
	}
}

func TestFindPosition(t *testing.T) {
	patch := "@@ -1,2 +1,3 @@\n a\n+b\n c\n"

	parsed, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	pos := parsed.FindPosition(2)
	if pos == nil || *pos != 2 {
		t.Errorf("FindPosition(2) = %v, want 2", pos)
	}

	// Context lines are not anchorable for new comments.
	if pos := parsed.FindPosition(1); pos != nil {
		t.Errorf("FindPosition(1) = %d, want nil for context line", *pos)
	}

	if pos := parsed.FindPosition(99); pos != nil {
		t.Errorf("FindPosition(99) = %d, want nil for line outside diff", *pos)
	}

	if pos := parsed.FindPosition(0); pos != nil {
		t.Errorf("FindPosition(0) = %d, want nil", *pos)
	}
}
