// Package history holds the interpreter's fixed-capacity command log.
//
// The log is a ring buffer: once it fills up, appending a new command
// overwrites the slot holding the oldest one. Callers address records by
// their logical index, 0 being the oldest command still visible.
package history

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the number of commands retained when no capacity is
// configured.
const DefaultCapacity = 15

// NoPID marks records that never launched a process, e.g. built-ins.
const NoPID = -1

// ErrNotInHistory is returned when a lookup refers to a record that doesn't
// exist, either because it was never added or because it has been evicted.
var ErrNotInHistory = errors.New("command not in history")

// Record is a single logged command.
type Record struct {
	// Text is the exact line as entered.
	Text string
	// PID of the process the command spawned, or NoPID.
	PID int
}

// Handle identifies a record for later pid attachment. It stays valid until
// the record's slot is evicted.
type Handle struct {
	slot int
	seq  uint64
}

// Log is a fixed-capacity ring buffer of Records. The zero value is not
// usable; create one with New.
type Log struct {
	slots []Record
	// seqs holds the append sequence number that produced each slot,
	// zero for slots never written. Used to invalidate stale Handles.
	seqs    []uint64
	newest  int
	wrapped bool
	appends uint64
}

// New creates an empty Log retaining up to capacity records. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Log{
		slots:  make([]Record, capacity),
		seqs:   make([]uint64, capacity),
		newest: -1,
	}
}

// Capacity reports the maximum number of retained records.
func (l *Log) Capacity() int {
	return len(l.slots)
}

// Len reports the number of currently visible records.
func (l *Log) Len() int {
	if l.wrapped {
		return len(l.slots)
	}
	return l.newest + 1
}

// physical maps a logical index (0 = oldest visible) onto its slot. The
// caller must have bounds-checked i against Len().
func (l *Log) physical(i int) int {
	if !l.wrapped {
		return i
	}
	return (l.newest + 1 + i) % len(l.slots)
}

// Append adds a new record holding text with no pid yet, evicting the oldest
// record if the log is full. The returned Handle lets the caller attach a
// pid to exactly this record later.
func (l *Log) Append(text string) Handle {
	l.newest++
	if l.newest == len(l.slots) {
		l.newest = 0
		l.wrapped = true
	}

	// Overwriting the slot evicts any previous occupant.
	l.appends++
	l.slots[l.newest] = Record{Text: text, PID: NoPID}
	l.seqs[l.newest] = l.appends

	return Handle{slot: l.newest, seq: l.appends}
}

// AttachPID sets the pid of the record h refers to. It is a no-op if the
// record has since been evicted, which can only happen when history replay
// refills an exhausted log before the launch completes.
func (l *Log) AttachPID(h Handle, pid int) {
	if h.seq == 0 || l.seqs[h.slot] != h.seq {
		return
	}
	l.slots[h.slot].PID = pid
}

// At returns the record at logical index i, oldest first.
func (l *Log) At(i int) (Record, error) {
	if i < 0 || i >= l.Len() {
		return Record{}, ErrNotInHistory
	}
	return l.slots[l.physical(i)], nil
}

// TextAt returns the command text at logical index i, oldest first.
func (l *Log) TextAt(i int) (string, error) {
	rec, err := l.At(i)
	if err != nil {
		return "", err
	}
	return rec.Text, nil
}

// MostRecent returns the text of the newest record.
func (l *Log) MostRecent() (string, error) {
	if l.Len() == 0 {
		return "", ErrNotInHistory
	}
	return l.slots[l.newest].Text, nil
}

// Render formats every visible record oldest first, numbered from zero.
// When showPIDs is set each line includes the record's pid, NoPID standing
// in for commands that never launched a process.
func (l *Log) Render(showPIDs bool) []string {
	lines := make([]string, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		rec := l.slots[l.physical(i)]
		if showPIDs {
			lines = append(lines, fmt.Sprintf("[%2d] %d %s", i, rec.PID, rec.Text))
		} else {
			lines = append(lines, fmt.Sprintf("[%2d] %s", i, rec.Text))
		}
	}
	return lines
}
