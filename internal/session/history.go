package session

// DefaultHistoryLimit bounds the undo stack. When the limit is reached the
// oldest snapshot is discarded, so very long editing sessions cannot grow
// memory without bound. 50 matches what small diagram editors typically keep.
const DefaultHistoryLimit = 50

// push records prior as an undo snapshot and discards any redo branch.
// A new edit always branches from the present; the discarded Future entries
// are not preserved anywhere.
func push(past, future []string, prior string, limit int) ([]string, []string) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	past = append(past, prior)
	if len(past) > limit {
		past = past[len(past)-limit:]
	}
	return past, future[:0]
}

// undo moves current onto the front of future and pops the most recent past
// entry as the new current text. ok is false when there is nothing to undo.
func undo(past, future []string, current string) (newPast, newFuture []string, restored string, ok bool) {
	if len(past) == 0 {
		return past, future, current, false
	}
	restored = past[len(past)-1]
	newPast = past[:len(past)-1]
	newFuture = append([]string{current}, future...)
	return newPast, newFuture, restored, true
}

// redo is the inverse of undo. ok is false when there is nothing to redo.
func redo(past, future []string, current string) (newPast, newFuture []string, restored string, ok bool) {
	if len(future) == 0 {
		return past, future, current, false
	}
	restored = future[0]
	newFuture = future[1:]
	newPast = append(past, current)
	return newPast, newFuture, restored, true
}
