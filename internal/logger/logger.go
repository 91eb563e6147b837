// Package logger is a trimmed diagnostics layer in the style of esbuild's
// internal/logger: a source location, a message, and a log that collects
// messages instead of panicking.
//
// The pass is static and fatal (spec.md §7): a malformed component aborts
// with one message and the input is left untouched — there is no streaming,
// no severity-based continuation, and no terminal/file output here, unlike
// the teacher's full logger which serves a long-running bundler process.
package logger

import "fmt"

// Loc is the 0-based index of a node from the start of the component body,
// in source-text bytes. Synthetic nodes the Optimizer manufactures reuse
// the Loc of the node they replace.
type Loc struct {
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

type Msg struct {
	Kind MsgKind
	Loc  Loc
	Text string
}

// Log accumulates messages emitted while optimizing a single component.
// It is not safe for concurrent use; the pass is single-threaded (spec.md §5).
type Log struct {
	msgs []Msg
}

func (l *Log) AddError(loc Loc, text string) {
	l.msgs = append(l.msgs, Msg{Kind: Error, Loc: loc, Text: text})
}

func (l *Log) AddErrorf(loc Loc, format string, args ...interface{}) {
	l.AddError(loc, fmt.Sprintf(format, args...))
}

func (l *Log) AddWarning(loc Loc, text string) {
	l.msgs = append(l.msgs, Msg{Kind: Warning, Loc: loc, Text: text})
}

func (l *Log) HasErrors() bool {
	for _, m := range l.msgs {
		if m.Kind == Error {
			return true
		}
	}
	return false
}

func (l *Log) Msgs() []Msg {
	return l.msgs
}
