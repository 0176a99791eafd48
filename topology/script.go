package topology

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ygrebnov/errorc"

	"github.com/ezrec/collate/record"
)

func checkKey(key int) error {
	if key < 1 || key > record.KEY_MAX {
		return errorc.With(ErrInvalidTopology, errorc.String("key", fmt.Sprint(key)))
	}
	return nil
}

// makeData checks the key and payload ranges before packing them, as
// record.MakeData would silently mask them.
func makeData(key int, payload int) (starlark.Value, error) {
	err := checkKey(key)
	if err != nil {
		return nil, err
	}
	if payload < 0 || payload > record.PAYLOAD_MASK {
		return nil, errorc.With(ErrInvalidTopology, errorc.String("payload", fmt.Sprintf("0x%x", payload)))
	}

	return starlark.MakeInt(int(record.MakeData(key, payload))), nil
}

// builtinRecord is the `record(key, payload)` script helper.
func builtinRecord(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key, payload int
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &key, &payload)
	if err != nil {
		return nil, err
	}

	value, err := makeData(key, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	return value, nil
}

// builtinGroup is the `group(key, payloads...)` script helper.
func builtinGroup(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) != 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("%s: missing key", b.Name())
	}

	key, err := starlark.AsInt32(args[0])
	if err != nil {
		return nil, fmt.Errorf("%s: key: %w", b.Name(), err)
	}
	err = checkKey(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	values := make([]starlark.Value, 0, len(args)-1)
	for _, arg := range args[1:] {
		payload, err := starlark.AsInt32(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: payload: %w", b.Name(), err)
		}
		value, err := makeData(key, payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		values = append(values, value)
	}

	return starlark.NewList(values), nil
}

// intOf converts a script global to an int.
func intOf(globals starlark.StringDict, name string, value *int) (err error) {
	st, ok := globals[name]
	if !ok {
		return
	}

	*value, err = starlark.AsInt32(st)
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
	}
	return
}

// recordsOf converts a script global iterable of ints to records.
func recordsOf(globals starlark.StringDict, name string, value *[]record.Record) (err error) {
	st, ok := globals[name]
	if !ok {
		return
	}

	iter := starlark.Iterate(st)
	if iter == nil {
		err = fmt.Errorf("%s: %s is not iterable", name, st.Type())
		return
	}
	defer iter.Done()

	var records []record.Record
	var elem starlark.Value
	for iter.Next(&elem) {
		var n int
		n, err = starlark.AsInt32(elem)
		if err != nil {
			err = fmt.Errorf("%s[%d]: %w", name, len(records), err)
			return
		}
		records = append(records, record.Record(n))
	}

	*value = records
	return
}

// Load evaluates a Starlark topology script. src may be nil to read
// filename, or a string, []byte or io.Reader holding the script.
//
// The script may set the globals `capacity`, `groups` and `data`; any that
// are unset keep the reference values. The helpers `record(key, payload)`
// and `group(key, payloads...)` build data records.
//
//	capacity = 1
//	groups = 3
//	data = group(1, 1, 2) + group(3, 7)
func Load(filename string, src any) (topo Topology, err error) {
	defer func() {
		if err != nil {
			err = &ErrScript{Filename: filename, Err: err}
		}
	}()

	thread := &starlark.Thread{Name: "topology"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{
		"record":           starlark.NewBuiltin("record", builtinRecord),
		"group":            starlark.NewBuiltin("group", builtinGroup),
		"CAPACITY_DEFAULT": starlark.MakeInt(CAPACITY_DEFAULT),
		"GROUPS_DEFAULT":   starlark.MakeInt(GROUPS_DEFAULT),
		"KEY_MAX":          starlark.MakeInt(record.KEY_MAX),
	}

	globals, err := starlark.ExecFileOptions(&opts, thread, filename, src, pred)
	if err != nil {
		return
	}

	topo = Reference()

	err = intOf(globals, "capacity", &topo.Capacity)
	if err != nil {
		return
	}

	err = intOf(globals, "groups", &topo.Groups)
	if err != nil {
		return
	}

	err = recordsOf(globals, "data", &topo.Data)
	if err != nil {
		return
	}

	err = topo.Validate()
	return
}
