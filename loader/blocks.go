package loader

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/scratchvm/vm"
)

// Primitive codes used by compact block inputs: [code, value, ...].
const (
	primMathNumber     = 4
	primPositiveNumber = 5
	primWholeNumber    = 6
	primInteger        = 7
	primAngle          = 8
	primColorPicker    = 9
	primText           = 10
	primBroadcast      = 11
	primVariable       = 12
	primList           = 13
)

// inputNoShadow marks an input slot with no shadow block behind it.
const inputNoShadow = 2

// booleanSlots are the input names of hexagonal slots. Comparison operators
// reuse OPERAND1/OPERAND2 but always carry a shadow.
var booleanSlots = map[string]bool{
	"CONDITION": true,
	"OPERAND":   true,
	"OPERAND1":  true,
	"OPERAND2":  true,
}

// decodeBlock decodes one entry of a target's blocks object. Top-level
// primitives stored in array form are skipped (ok is false).
func decodeBlock(id string, data json.RawMessage) (vm.Block, bool, error) {
	if len(data) > 0 && data[0] == '[' {
		log.Debugf("skipping top-level primitive %s", id)
		return vm.Block{}, false, nil
	}
	var rb rawBlock
	if err := json.Unmarshal(data, &rb); err != nil {
		return vm.Block{}, false, fmt.Errorf("block %s: %w", id, err)
	}
	b := vm.Block{
		ID:       id,
		Opcode:   rb.Opcode,
		TopLevel: rb.TopLevel,
		Shadow:   rb.Shadow,
		Fields:   make(map[string]vm.ParsedField, len(rb.Fields)),
		Inputs:   make(map[string]vm.ParsedInput, len(rb.Inputs)),
	}
	if rb.Next != nil {
		b.NextID = *rb.Next
	}
	if rb.Parent != nil {
		b.ParentID = *rb.Parent
	}
	for name, f := range rb.Fields {
		b.Fields[name] = decodeField(f)
	}
	for name, in := range rb.Inputs {
		parsed, ok, err := decodeInput(name, in)
		if err != nil {
			return vm.Block{}, false, fmt.Errorf("block %s input %s: %w", id, name, err)
		}
		if ok {
			b.Inputs[name] = parsed
		}
	}
	if rb.Mutation != nil {
		m, err := decodeMutation(rb.Mutation)
		if err != nil {
			return vm.Block{}, false, fmt.Errorf("block %s mutation: %w", id, err)
		}
		b.Mutation = m
	}
	return b, true, nil
}

func decodeField(f []any) vm.ParsedField {
	var pf vm.ParsedField
	if len(f) > 0 {
		if s, ok := f[0].(string); ok {
			pf.Value = s
		} else {
			pf.Value = vm.ParseLiteral(f[0]).AsString()
		}
	}
	pf.ID = pf.Value
	if len(f) > 1 {
		if id, ok := f[1].(string); ok {
			pf.ID = id
		}
	}
	return pf
}

// decodeInput decodes [shadowType, value, shadowValue]. The second slot is
// either a block id, null, or a compact primitive. Reporters sitting in a
// shadowless boolean slot decode as boolean inputs.
func decodeInput(name string, in []json.RawMessage) (vm.ParsedInput, bool, error) {
	if len(in) < 2 {
		return vm.ParsedInput{}, false, nil
	}
	var slot any
	if err := json.Unmarshal(in[1], &slot); err != nil {
		return vm.ParsedInput{}, false, err
	}
	switch v := slot.(type) {
	case nil:
		return vm.ParsedInput{}, false, nil
	case string:
		var shadow int
		if err := json.Unmarshal(in[0], &shadow); err == nil && shadow == inputNoShadow && booleanSlots[name] {
			return vm.BooleanInput(v), true, nil
		}
		return vm.BlockInput(v), true, nil
	case []any:
		return decodePrimitive(v)
	}
	return vm.ParsedInput{}, false, fmt.Errorf("unexpected input value %s", in[1])
}

func decodePrimitive(p []any) (vm.ParsedInput, bool, error) {
	if len(p) < 2 {
		return vm.ParsedInput{}, false, fmt.Errorf("short primitive %v", p)
	}
	code, ok := p[0].(float64)
	if !ok {
		return vm.ParsedInput{}, false, fmt.Errorf("bad primitive code %v", p[0])
	}
	switch int(code) {
	case primMathNumber, primPositiveNumber, primWholeNumber, primInteger,
		primAngle, primColorPicker, primText:
		return vm.LiteralInput(vm.ParseLiteral(p[1])), true, nil
	case primBroadcast, primList:
		name, _ := p[1].(string)
		return vm.LiteralInput(vm.FromString(name)), true, nil
	case primVariable:
		if len(p) < 3 {
			return vm.ParsedInput{}, false, fmt.Errorf("variable primitive without id %v", p)
		}
		id, _ := p[2].(string)
		return vm.VariableInput(id), true, nil
	}
	return vm.ParsedInput{}, false, fmt.Errorf("unknown primitive code %v", p[0])
}

// decodeMutation parses procedure metadata. The argument lists are JSON
// arrays stored as strings.
func decodeMutation(rm *rawMutation) (*vm.Mutation, error) {
	m := &vm.Mutation{ProcCode: rm.ProcCode}
	for _, list := range []struct {
		src string
		dst *[]string
	}{
		{rm.ArgumentIDs, &m.ArgumentIDs},
		{rm.ArgumentNames, &m.ArgumentNames},
	} {
		if list.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(list.src), list.dst); err != nil {
			return nil, fmt.Errorf("bad argument list %q: %w", list.src, err)
		}
	}
	if rm.ArgumentDefaults != "" {
		var defaults []any
		if err := json.Unmarshal([]byte(rm.ArgumentDefaults), &defaults); err != nil {
			return nil, fmt.Errorf("bad argument defaults %q: %w", rm.ArgumentDefaults, err)
		}
		for _, d := range defaults {
			m.ArgumentDefaults = append(m.ArgumentDefaults, vm.ParseLiteral(d).AsString())
		}
	}
	switch w := rm.Warp.(type) {
	case bool:
		m.Warp = w
	case string:
		m.Warp = w == "true"
	}
	return m, nil
}
