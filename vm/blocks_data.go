package vm

import (
	"strings"
	"unicode/utf8"
)

// maxListLength caps lists when misc limits are on.
const maxListLength = 200000

func (e *Executor) registerData() {
	e.Reporter("data_variable", func(e *Executor, t *Thread, b *Block) Value {
		if v := e.variable(t, b); v != nil {
			return v.Value
		}
		return FromInt(0)
	})
	e.Statement("data_setvariableto", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		if v := e.variable(t, b); v != nil {
			e.rt.setVariable(v, e.InputValue(t, b, "VALUE"))
		}
		return ResultContinue
	})
	e.Statement("data_changevariableby", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		if v := e.variable(t, b); v != nil {
			e.rt.setVariable(v, v.Value.Add(e.InputValue(t, b, "VALUE")))
		}
		return ResultContinue
	})
	e.Statement("data_showvariable", monitorToggle("VARIABLE", true))
	e.Statement("data_hidevariable", monitorToggle("VARIABLE", false))
	e.Statement("data_showlist", monitorToggle("LIST", true))
	e.Statement("data_hidelist", monitorToggle("LIST", false))

	e.Reporter("data_listcontents", func(e *Executor, t *Thread, b *Block) Value {
		if l := e.list(t, b); l != nil {
			return FromString(listContents(l.Items))
		}
		return FromString("")
	})
	e.Statement("data_addtolist", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		if l := e.list(t, b); l != nil && e.rt.listHasRoom(l) {
			l.Items = append(l.Items, e.InputValue(t, b, "ITEM"))
		}
		return ResultContinue
	})
	e.Statement("data_deleteoflist", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		l := e.list(t, b)
		if l == nil {
			return ResultContinue
		}
		idx := e.InputValue(t, b, "INDEX")
		if strings.EqualFold(idx.AsString(), "all") {
			l.Items = l.Items[:0]
			return ResultContinue
		}
		if i, ok := e.rt.listIndex(idx, len(l.Items)); ok {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
		}
		return ResultContinue
	})
	e.Statement("data_deletealloflist", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		if l := e.list(t, b); l != nil {
			l.Items = l.Items[:0]
		}
		return ResultContinue
	})
	e.Statement("data_insertatlist", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		l := e.list(t, b)
		if l == nil || !e.rt.listHasRoom(l) {
			return ResultContinue
		}
		// Inserting one past the end appends.
		i, ok := e.rt.listIndex(e.InputValue(t, b, "INDEX"), len(l.Items)+1)
		if !ok {
			return ResultContinue
		}
		item := e.InputValue(t, b, "ITEM")
		l.Items = append(l.Items, Value{})
		copy(l.Items[i+1:], l.Items[i:])
		l.Items[i] = item
		return ResultContinue
	})
	e.Statement("data_replaceitemoflist", func(e *Executor, t *Thread, _ *Frame, b *Block) BlockResult {
		l := e.list(t, b)
		if l == nil {
			return ResultContinue
		}
		if i, ok := e.rt.listIndex(e.InputValue(t, b, "INDEX"), len(l.Items)); ok {
			l.Items[i] = e.InputValue(t, b, "ITEM")
		}
		return ResultContinue
	})
	e.Reporter("data_itemoflist", func(e *Executor, t *Thread, b *Block) Value {
		l := e.list(t, b)
		if l == nil {
			return FromString("")
		}
		if i, ok := e.rt.listIndex(e.InputValue(t, b, "INDEX"), len(l.Items)); ok {
			return l.Items[i]
		}
		return FromString("")
	})
	e.Reporter("data_itemnumoflist", func(e *Executor, t *Thread, b *Block) Value {
		l := e.list(t, b)
		if l == nil {
			return FromInt(0)
		}
		return FromInt(indexOf(l.Items, e.InputValue(t, b, "ITEM")) + 1)
	})
	e.Reporter("data_lengthoflist", func(e *Executor, t *Thread, b *Block) Value {
		if l := e.list(t, b); l != nil {
			return FromInt(len(l.Items))
		}
		return FromInt(0)
	})
	e.Reporter("data_listcontainsitem", func(e *Executor, t *Thread, b *Block) Value {
		l := e.list(t, b)
		return FromBool(l != nil && indexOf(l.Items, e.InputValue(t, b, "ITEM")) >= 0)
	})
}

func (e *Executor) variable(t *Thread, b *Block) *Variable {
	v := e.rt.lookupVariable(t.Sprite, b.FieldID("VARIABLE"), b.Field("VARIABLE"))
	if v == nil {
		log.Debugf("%s: no variable %q", t.Sprite.Name, b.Field("VARIABLE"))
	}
	return v
}

func (e *Executor) list(t *Thread, b *Block) *List {
	l := e.rt.lookupList(t.Sprite, b.FieldID("LIST"), b.Field("LIST"))
	if l == nil {
		log.Debugf("%s: no list %q", t.Sprite.Name, b.Field("LIST"))
	}
	return l
}

func monitorToggle(field string, visible bool) StatementFunc {
	return func(e *Executor, _ *Thread, _ *Frame, b *Block) BlockResult {
		e.rt.setMonitorVisible(b.FieldID(field), visible)
		return ResultContinue
	}
}

// listHasRoom reports whether l may grow by one item.
func (r *Runtime) listHasRoom(l *List) bool {
	if r.settings.MiscLimits && len(l.Items) >= maxListLength {
		log.Debugf("list %s is full", l.Name)
		return false
	}
	return true
}

// listIndex resolves a 1-based list index, "last" or "random" into a
// 0-based position below n.
func (r *Runtime) listIndex(v Value, n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	switch strings.ToLower(v.AsString()) {
	case "last":
		return n - 1, true
	case "random", "any":
		return r.rand.IntN(n), true
	}
	if !v.IsNumeric() {
		return 0, false
	}
	i := roundToInt(v.AsDouble()) - 1
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func indexOf(items []Value, item Value) int {
	for i, it := range items {
		if looseEqual(it, item) {
			return i
		}
	}
	return -1
}

// listContents joins items without separators when every item is a single
// character, and with spaces otherwise.
func listContents(items []Value) string {
	sep := ""
	strs := make([]string, len(items))
	for i, it := range items {
		strs[i] = it.AsString()
		if utf8.RuneCountInString(strs[i]) != 1 {
			sep = " "
		}
	}
	return strings.Join(strs, sep)
}
