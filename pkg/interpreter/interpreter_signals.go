package interpreter

import (
	"minilua/interpreter-go/pkg/runtime"
	"minilua/interpreter-go/pkg/sourcechange"
)

type signal int

const (
	flowNormal signal = iota
	flowBreak
	flowReturn
)

func (s signal) String() string {
	switch s {
	case flowBreak:
		return "break"
	case flowReturn:
		return "return"
	default:
		return "normal"
	}
}

// flow is what every statement evaluates to: how control leaves it, the
// returned values for flowReturn, and the source changes requested while it
// ran.
type flow struct {
	signal signal
	values runtime.Vallist
	change sourcechange.Tree
}

func normal(change sourcechange.Tree) flow {
	return flow{signal: flowNormal, change: change}
}

// combineChanges ANDs two optional trees; nil means nothing was requested.
func combineChanges(a, b sourcechange.Tree) sourcechange.Tree {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return sourcechange.And(a, b)
}
