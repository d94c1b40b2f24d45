package eval

// Environment is the abstract state built during one top-to-bottom pass over
// the top-level scope. It does not model nested scopes.
type Environment struct {
	vars      map[string]Value
	functions map[string]string
	classes   map[string]Value
	records   map[string]map[string]Value
}

func NewEnvironment() *Environment {
	return &Environment{
		vars:      make(map[string]Value),
		functions: make(map[string]string),
		classes:   make(map[string]Value),
		records:   make(map[string]map[string]Value),
	}
}

func (e *Environment) SetVar(name string, v Value) {
	e.vars[name] = v
}

func (e *Environment) Var(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// DeclareFunction records a function declaration's signature text.
func (e *Environment) DeclareFunction(name, signature string) {
	e.functions[name] = signature
}

func (e *Environment) Function(name string) (string, bool) {
	sig, ok := e.functions[name]
	return sig, ok
}

func (e *Environment) DeclareClass(name string) {
	e.classes[name] = ClassTag(name)
}

func (e *Environment) Class(name string) (Value, bool) {
	v, ok := e.classes[name]
	return v, ok
}

// SetRecord stores the flattened identifier-keyed properties of an object
// literal bound to name.
func (e *Environment) SetRecord(name string, fields map[string]Value) {
	e.records[name] = fields
}

// ClearRecord drops a record when name is rebound to a non-object value.
func (e *Environment) ClearRecord(name string) {
	delete(e.records, name)
}

func (e *Environment) Field(name, key string) (Value, bool) {
	record, ok := e.records[name]
	if !ok {
		return Value{}, false
	}
	v, ok := record[key]
	return v, ok
}

// Lookup resolves an identifier: variables first, then declared functions,
// then declared classes.
func (e *Environment) Lookup(name string) (Value, bool) {
	if v, ok := e.vars[name]; ok {
		return v, true
	}
	if _, ok := e.functions[name]; ok {
		return FunctionTag(name), true
	}
	if v, ok := e.classes[name]; ok {
		return v, true
	}
	return Value{}, false
}
