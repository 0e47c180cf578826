package runtime

// GLOBAL is the index of the global scope. It is never dropped.
const GLOBAL = 0

type Binding struct {
	Type  Kind
	Value Value
}

type scope struct {
	parent   int
	bindings map[string]*Binding
}

// Env is an arena of scopes. Scopes refer to their parent by index, so
// leaving a block or a call drops every scope created inside it with a
// single Truncate.
type Env struct {
	scopes []scope
}

func NewEnv() *Env {
	env := new(Env)
	env.scopes = []scope{{parent: -1, bindings: make(map[string]*Binding)}}
	return env
}

// Push creates a child of parent and returns its index.
func (env *Env) Push(parent int) int {
	env.scopes = append(env.scopes, scope{parent: parent, bindings: make(map[string]*Binding)})
	return len(env.scopes) - 1
}

// Truncate drops every scope whose index is >= n.
func (env *Env) Truncate(n int) {
	if n <= GLOBAL {
		n = GLOBAL + 1
	}
	if n >= len(env.scopes) {
		return
	}
	clear(env.scopes[n:])
	env.scopes = env.scopes[:n]
}

func (env *Env) Len() int { return len(env.scopes) }

func (env *Env) Parent(index int) int { return env.scopes[index].parent }

// Declare binds name in the given scope. It reports false if the scope
// already has a binding with that name.
func (env *Env) Declare(index int, name string, ty Kind, value Value) bool {
	bindings := env.scopes[index].bindings
	if _, ok := bindings[name]; ok {
		return false
	}
	bindings[name] = &Binding{Type: ty, Value: value}
	return true
}

// Resolve walks from index up to the global scope and returns the nearest
// binding of name.
func (env *Env) Resolve(index int, name string) (*Binding, bool) {
	for index >= 0 {
		if binding, ok := env.scopes[index].bindings[name]; ok {
			return binding, true
		}
		index = env.scopes[index].parent
	}
	return nil, false
}

// Names lists the bindings of a single scope. Used by the REPL.
func (env *Env) Names(index int) map[string]Binding {
	names := make(map[string]Binding, len(env.scopes[index].bindings))
	for name, binding := range env.scopes[index].bindings {
		names[name] = *binding
	}
	return names
}
