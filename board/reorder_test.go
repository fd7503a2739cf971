package board

import (
	"testing"
)

func column(t *testing.T, tasks []Task, col string) []Task {
	t.Helper()
	out := []Task{}
	for _, task := range tasks {
		if task.Column == col {
			out = append(out, task)
		}
	}
	return out
}

func order(t *testing.T, tasks []Task, col string) []string {
	t.Helper()
	in := column(t, tasks, col)
	for i := 0; i < len(in); i++ {
		for j := i + 1; j < len(in); j++ {
			if in[j].Position < in[i].Position {
				in[i], in[j] = in[j], in[i]
			}
		}
	}
	ids := make([]string, len(in))
	for i, task := range in {
		ids[i] = task.ID
	}
	return ids
}

func assertOrder(t *testing.T, tasks []Task, col string, want ...string) {
	t.Helper()
	got := order(t, tasks, col)
	if len(got) != len(want) {
		t.Fatalf("column %s: got %v, want %v", col, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %s: got %v, want %v", col, got, want)
		}
	}
}

func assertDense(t *testing.T, tasks []Task, col string) {
	t.Helper()
	in := column(t, tasks, col)
	seen := make(map[int64]bool, len(in))
	for _, task := range in {
		if task.Position < 0 || task.Position >= int64(len(in)) {
			t.Fatalf("column %s: position %d out of range 0..%d", col, task.Position, len(in)-1)
		}
		if seen[task.Position] {
			t.Fatalf("column %s: duplicate position %d", col, task.Position)
		}
		seen[task.Position] = true
	}
}

func sample() []Task {
	return []Task{
		{ID: "a", Column: "inbox", Position: 0},
		{ID: "b", Column: "inbox", Position: 1},
		{ID: "c", Column: "inbox", Position: 2},
		{ID: "d", Column: "inbox", Position: 3},
		{ID: "x", Column: "doing", Position: 0},
		{ID: "y", Column: "doing", Position: 1},
	}
}

func TestRenumberIdempotent(t *testing.T) {
	t.Parallel()

	tasks := []Task{
		{ID: "a", Column: "inbox", Position: 17},
		{ID: "b", Column: "inbox", Position: 3},
		{ID: "c", Column: "inbox", Position: 3},
		{ID: "d", Column: "inbox", Position: 1700000000000},
	}

	once := Renumber(tasks, "inbox")
	assertDense(t, once, "inbox")
	assertOrder(t, once, "inbox", "b", "c", "a", "d")

	twice := Renumber(once, "inbox")
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("renumber not idempotent: %v != %v", once[i], twice[i])
		}
	}
}

func TestMoveOntoTaskDown(t *testing.T) {
	t.Parallel()

	out, err := MoveOntoTask(sample(), "a", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out, "inbox", "b", "c", "a", "d")
	assertDense(t, out, "inbox")
}

func TestMoveOntoTaskUp(t *testing.T) {
	t.Parallel()

	out, err := MoveOntoTask(sample(), "d", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out, "inbox", "a", "d", "b", "c")
	assertDense(t, out, "inbox")
}

func TestMoveOntoTaskAcrossColumns(t *testing.T) {
	t.Parallel()

	out, err := MoveOntoTask(sample(), "b", "y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out, "inbox", "a", "c", "d")
	assertOrder(t, out, "doing", "x", "b", "y")
	assertDense(t, out, "inbox")
	assertDense(t, out, "doing")
}

func TestMoveOntoSelfIsNoop(t *testing.T) {
	t.Parallel()

	before := sample()
	out, err := MoveOntoTask(before, "b", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range before {
		if before[i] != out[i] {
			t.Fatalf("self move changed state: %v != %v", before[i], out[i])
		}
	}
}

func TestMoveToTop(t *testing.T) {
	t.Parallel()

	out, err := MoveToTop(sample(), "c", "inbox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out, "inbox", "c", "a", "b", "d")
	assertDense(t, out, "inbox")
}

func TestMoveToTopAcrossColumns(t *testing.T) {
	t.Parallel()

	out, err := MoveToTop(sample(), "y", "inbox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out, "inbox", "y", "a", "b", "c", "d")
	assertOrder(t, out, "doing", "x")
	assertDense(t, out, "inbox")
	assertDense(t, out, "doing")
}

func TestMoveToColumnAppends(t *testing.T) {
	t.Parallel()

	out, err := MoveToColumn(sample(), "a", "doing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out, "inbox", "b", "c", "d")
	assertOrder(t, out, "doing", "x", "y", "a")
	assertDense(t, out, "inbox")
	assertDense(t, out, "doing")
}

func TestMoveToEmptyColumn(t *testing.T) {
	t.Parallel()

	out, err := MoveToColumn(sample(), "b", "done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out, "done", "b")
	assertOrder(t, out, "inbox", "a", "c", "d")
	for _, task := range out {
		if task.ID == "b" && task.Position != 0 {
			t.Fatalf("first task in empty column got position %d, want 0", task.Position)
		}
	}
}

func TestMoveUnknownTask(t *testing.T) {
	t.Parallel()

	if _, err := MoveOntoTask(sample(), "nope", "a"); err != ErrTaskNotFound {
		t.Fatalf("got %v, want ErrTaskNotFound", err)
	}
	if _, err := MoveToTop(sample(), "nope", "inbox"); err != ErrTaskNotFound {
		t.Fatalf("got %v, want ErrTaskNotFound", err)
	}
	if _, err := MoveToColumn(sample(), "nope", "inbox"); err != ErrTaskNotFound {
		t.Fatalf("got %v, want ErrTaskNotFound", err)
	}
}

func TestInputIsNotMutated(t *testing.T) {
	t.Parallel()

	in := sample()
	if _, err := MoveOntoTask(in, "a", "d"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := sample()
	for i := range want {
		if in[i] != want[i] {
			t.Fatalf("input mutated at %d: %v != %v", i, in[i], want[i])
		}
	}
}
