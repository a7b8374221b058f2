package task

// List is an intrusive singly linked task list with head and tail pointers.
// It is owned by exactly one goroutine at a time: workers use it as their
// private run queue and hand sublists to thieves only through Split while
// holding the queue lock. Pushing a task that is already linked somewhere
// else corrupts both lists; callers track membership through the submission
// protocol.
//
// All operations are O(1) except Split, Reverse, Len and Discard.
type List struct {
	head *Task
	tail *Task
}

func (t *Task) nextTask() *Task { return t.next.Load() }
func (t *Task) setNext(n *Task) { t.next.Store(n) }

// Empty reports whether the list holds no tasks.
func (l *List) Empty() bool { return l.head == nil }

// Front returns the first task without removing it, or nil.
func (l *List) Front() *Task { return l.head }

// Back returns the last task without removing it, or nil.
func (l *List) Back() *Task { return l.tail }

// Len walks the list and returns its size.
func (l *List) Len() int {
	n := 0
	for t := l.head; t != nil; t = t.nextTask() {
		n++
	}
	return n
}

// PushFront links t as the new head.
func (l *List) PushFront(t *Task) {
	t.setNext(l.head)
	l.head = t
	if l.tail == nil {
		l.tail = t
	}
}

// PushBack links t as the new tail.
func (l *List) PushBack(t *Task) {
	t.setNext(nil)
	if l.tail != nil {
		l.tail.setNext(t)
	} else {
		l.head = t
	}
	l.tail = t
}

// PopFront unlinks and returns the head task, or nil if the list is empty.
func (l *List) PopFront() *Task {
	t := l.head
	if t == nil {
		return nil
	}
	l.head = t.nextTask()
	if l.head == nil {
		l.tail = nil
	}
	t.setNext(nil)
	return t
}

// Erase unlinks t given its predecessor prev (nil when t is the head). The
// pair must actually be adjacent members of this list.
func (l *List) Erase(prev, t *Task) {
	if prev == nil {
		l.head = t.nextTask()
	} else {
		prev.setNext(t.nextTask())
	}
	if l.tail == t {
		l.tail = prev
	}
	t.setNext(nil)
}

// Prepend moves every task of other to the front of l, preserving other's
// internal order. other is left empty.
func (l *List) Prepend(other *List) {
	if other.head == nil {
		return
	}
	if l.head == nil {
		*l = *other
	} else {
		other.tail.setNext(l.head)
		l.head = other.head
	}
	other.head, other.tail = nil, nil
}

// Append moves every task of other to the back of l, preserving other's
// internal order. other is left empty.
func (l *List) Append(other *List) {
	if other.head == nil {
		return
	}
	if l.tail == nil {
		*l = *other
	} else {
		l.tail.setNext(other.head)
		l.tail = other.tail
	}
	other.head, other.tail = nil, nil
}

// Reverse flips the list order in place.
func (l *List) Reverse() {
	if l.head == nil {
		return
	}
	var prev *Task
	cur := l.head
	l.tail = cur
	for cur != nil {
		next := cur.nextTask()
		cur.setNext(prev)
		prev = cur
		cur = next
	}
	l.head = prev
}

// Split removes up to max tasks from the back of the list and returns them
// as a new list, leaving the owner its warmer front-of-queue work. At most
// half of the tasks (rounded up) are taken; a single remaining task is
// always handed over whole so a victim down to its last item gets unblocked.
func (l *List) Split(max int) List {
	var out List
	if l.head == nil || max <= 0 {
		return out
	}
	if l.head == l.tail {
		out = *l
		l.head, l.tail = nil, nil
		return out
	}

	// Two-speed walk: when the fast pointer exhausts the list, the slow one
	// sits at the midpoint, the earliest the split window may start.
	prev := l.head
	mid := l.head
	fast := l.head
	for fast.nextTask() != nil {
		prev = mid
		mid = mid.nextTask()
		fast = fast.nextTask()
		if fast.nextTask() != nil {
			fast = fast.nextTask()
		}
	}

	// Slide a max-wide window from the midpoint until it reaches the tail;
	// the window is what the thief takes.
	winPrev, winHead, winTail := prev, mid, mid
	for n := max; winTail.nextTask() != nil && n > 1; n-- {
		winTail = winTail.nextTask()
	}
	for winTail.nextTask() != nil {
		winPrev = winHead
		winHead = winHead.nextTask()
		winTail = winTail.nextTask()
	}

	l.tail = winPrev
	winPrev.setNext(nil)
	out.head = winHead
	out.tail = winTail
	return out
}

// Discard abandons every task in the list and, transitively, every dependent
// that can no longer run. The list drives the iteration as an explicit work
// queue, so deeply chained graphs discard in constant stack space and each
// task is touched at most once.
func (l *List) Discard() {
	for {
		t := l.PopFront()
		if t == nil {
			return
		}
		t.Discard(l)
	}
}
