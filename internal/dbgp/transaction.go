package dbgp

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// Transactions hands out transaction IDs for one Connection and records
// the last IDs seen on each side of the wire.  IDs start at 1 and are
// never reused.
type Transactions struct {
	next         atomic.Int64
	lastSent     atomic.Int64
	lastReceived atomic.Int64
}

// Next returns a fresh transaction ID.
func (t *Transactions) Next() int {
	return int(t.next.Add(1))
}

// Issued returns the most recently issued ID, or 0.
func (t *Transactions) Issued() int {
	return int(t.next.Load())
}

// Sent records that the command carrying id was handed to the socket.
func (t *Transactions) Sent(id int) {
	t.lastSent.Store(int64(id))
}

// Received records the transaction_id of an inbound response.
func (t *Transactions) Received(id int) {
	t.lastReceived.Store(int64(id))
}

// LastSent returns the ID of the last command written, or 0.
func (t *Transactions) LastSent() int { return int(t.lastSent.Load()) }

// LastReceived returns the ID of the last response dispatched, or 0.
func (t *Transactions) LastReceived() int { return int(t.lastReceived.Load()) }

// argument is one whitespace-separated argument of a command line,
// as a byte range.  Double-quoted text, with backslash escapes, is part
// of the argument it appears in.
type argument struct{ start, end int }

// splitCommand finds the arguments of command up to a standalone "--"
// data separator.  data is the offset of that separator, or -1.
func splitCommand(command string) (args []argument, data int) {
	i := 0
	for i < len(command) {
		for i < len(command) && isSpace(command[i]) {
			i++
		}
		if i == len(command) {
			break
		}
		start, quoted := i, false
		for ; i < len(command); i++ {
			c := command[i]
			if quoted {
				switch c {
				case '\\':
					i++
				case '"':
					quoted = false
				}
				continue
			}
			if isSpace(c) {
				break
			}
			if c == '"' {
				quoted = true
			}
		}
		if len(args) > 0 && command[start:i] == "--" {
			return args, start
		}
		args = append(args, argument{start, i})
	}
	return args, -1
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

// InsertTransactionID adds "-i id" to command.  The argument goes after
// the command's own arguments and in front of a "-- data" tail.  Quoted
// values are left exactly as written.  An existing -i argument is
// replaced.
func InsertTransactionID(command string, id int) string {
	args, data := splitCommand(command)
	head, tail := command, ""
	if data >= 0 {
		head, tail = command[:data], command[data:]
	}

	var b strings.Builder
	b.Grow(len(command) + 12)
	from := 0
	for k := 1; k < len(args); k++ {
		a := args[k]
		if head[a.start:a.end] != "-i" {
			continue
		}
		b.WriteString(head[from:args[k-1].end])
		from = a.end
		if k+1 < len(args) {
			from = args[k+1].end
			k++
		}
	}
	b.WriteString(strings.TrimRight(head[from:], " \t"))
	b.WriteString(" -i ")
	b.WriteString(strconv.Itoa(id))
	if tail != "" {
		b.WriteByte(' ')
		b.WriteString(tail)
	}
	return b.String()
}

// TransactionIDFromCommand returns the value of the "-i" argument in
// command, ignoring anything after a "--" separator.
func TransactionIDFromCommand(command string) (int, bool) {
	args, _ := splitCommand(command)
	for k := 1; k < len(args)-1; k++ {
		if command[args[k].start:args[k].end] != "-i" {
			continue
		}
		v := args[k+1]
		id, err := strconv.Atoi(command[v.start:v.end])
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
