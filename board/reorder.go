// Package board implements the position renumbering that keeps each board
// column's tasks in a dense 0..N-1 order across drag-and-drop moves.
//
// Every operation is a pure transformation over a task list: it returns a
// new slice and never touches storage. Columns are identified by an opaque
// scope key, so the same logic serves planner columns, project boards and
// kanban sub-columns.
package board

import (
	"errors"
	"sort"
)

// Task is the minimal view of a task the reorder logic needs. Column is the
// ordering scope; Position is the per-column ordering key.
type Task struct {
	ID       string
	Column   string
	Position int64
}

var (
	// ErrTaskNotFound is returned when the moved or target task id is not
	// in the list.
	ErrTaskNotFound = errors.New("task not found")
)

func clone(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

func find(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Renumber rewrites the positions of every task in column to a contiguous
// 0..N-1 sequence, preserving the current relative order. Duplicate raw
// positions keep their list order, so repeated application is idempotent.
func Renumber(tasks []Task, column string) []Task {
	out := clone(tasks)

	idx := make([]int, 0, len(out))
	for i := range out {
		if out[i].Column == column {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return out[idx[a]].Position < out[idx[b]].Position
	})
	for rank, i := range idx {
		out[i].Position = int64(rank)
	}
	return out
}

// MoveOntoTask drops task id onto target: the moved task takes the target's
// position, tasks between the vacated and occupied slots shift by one in the
// move direction, and cross-column moves compact the source column while the
// target column makes room. Both affected columns are renumbered afterwards.
func MoveOntoTask(tasks []Task, id, targetID string) ([]Task, error) {
	out := clone(tasks)

	mi := find(out, id)
	ti := find(out, targetID)
	if mi < 0 || ti < 0 {
		return nil, ErrTaskNotFound
	}
	if id == targetID {
		return out, nil
	}

	fromColumn := out[mi].Column
	toColumn := out[ti].Column
	fromPos := out[mi].Position
	toPos := out[ti].Position

	for i := range out {
		if i == mi {
			continue
		}
		t := &out[i]
		if t.Column == toColumn {
			if fromColumn == toColumn {
				if fromPos < toPos {
					// Moving down: close the gap above.
					if t.Position > fromPos && t.Position <= toPos {
						t.Position--
					}
				} else {
					// Moving up: push the block below down.
					if t.Position >= toPos && t.Position < fromPos {
						t.Position++
					}
				}
			} else if t.Position >= toPos {
				t.Position++
			}
		} else if t.Column == fromColumn && t.Position > fromPos {
			// Compact the column the task left.
			t.Position--
		}
	}

	out[mi].Column = toColumn
	out[mi].Position = toPos

	out = Renumber(out, toColumn)
	if fromColumn != toColumn {
		out = Renumber(out, fromColumn)
	}
	return out, nil
}

// MoveToTop drops task id onto a column's top zone: the moved task gets
// position 0 and every task already in the column shifts down by one.
func MoveToTop(tasks []Task, id, column string) ([]Task, error) {
	out := clone(tasks)

	mi := find(out, id)
	if mi < 0 {
		return nil, ErrTaskNotFound
	}
	fromColumn := out[mi].Column

	for i := range out {
		if i == mi {
			continue
		}
		if out[i].Column == column {
			out[i].Position++
		} else if out[i].Column == fromColumn && out[i].Position > out[mi].Position {
			out[i].Position--
		}
	}
	out[mi].Column = column
	out[mi].Position = 0

	out = Renumber(out, column)
	if fromColumn != column {
		out = Renumber(out, fromColumn)
	}
	return out, nil
}

// MoveToColumn drops task id onto a column's empty area: the moved task is
// appended after the column's current maximum position.
func MoveToColumn(tasks []Task, id, column string) ([]Task, error) {
	out := clone(tasks)

	mi := find(out, id)
	if mi < 0 {
		return nil, ErrTaskNotFound
	}
	fromColumn := out[mi].Column

	var max int64 = -1
	for i := range out {
		if i != mi && out[i].Column == column && out[i].Position > max {
			max = out[i].Position
		}
	}
	for i := range out {
		if i != mi && out[i].Column == fromColumn && out[i].Position > out[mi].Position {
			out[i].Position--
		}
	}
	out[mi].Column = column
	out[mi].Position = max + 1

	out = Renumber(out, column)
	if fromColumn != column {
		out = Renumber(out, fromColumn)
	}
	return out, nil
}
