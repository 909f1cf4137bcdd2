package interpret

import (
	"fmt"

	"golox/ast"
)

// Environment holds a map of variable bindings as well
// as a reference to an enclosing environment. Environments
// form a chain rooted at the interpreter's globals.
type Environment struct {
	enclosing *Environment
	values    map[string]interface{}
}

// NewEnvironment returns a new environment enclosed by the given environment
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{enclosing: enclosing}
}

// Define stores a new binding in this environment
func (e *Environment) Define(name string, value interface{}) {
	if e.values == nil {
		e.values = make(map[string]interface{})
	}
	e.values[name] = value
}

// Get returns the value bound to the given name in this environment
// or its enclosing environments
func (e *Environment) Get(name ast.Token) (interface{}, error) {
	if val, ok := e.values[name.Lexeme]; ok {
		return val, nil
	}
	if e.enclosing != nil {
		return e.enclosing.Get(name)
	}
	return nil, runtimeError{name, fmt.Sprintf("Undefined variable '%s'.", name.Lexeme)}
}

// Assign sets the value of an existing binding in this environment or
// the nearest enclosing environment that has it
func (e *Environment) Assign(name ast.Token, value interface{}) error {
	if _, ok := e.values[name.Lexeme]; ok {
		e.values[name.Lexeme] = value
		return nil
	}
	if e.enclosing != nil {
		return e.enclosing.Assign(name, value)
	}
	return runtimeError{name, fmt.Sprintf("Undefined variable '%s'.", name.Lexeme)}
}

// GetAt returns the value of the binding at a given distance from this environment
func (e *Environment) GetAt(distance int, name string) interface{} {
	return e.ancestor(distance).values[name]
}

// AssignAt sets the value of the binding at a given distance from this environment
func (e *Environment) AssignAt(distance int, name ast.Token, value interface{}) {
	e.ancestor(distance).Define(name.Lexeme, value)
}

// ancestor walks the enclosing chain the given number of hops
func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.enclosing
	}
	return env
}
