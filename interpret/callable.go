package interpret

import (
	"fmt"
	"time"

	"golox/ast"
)

type callable interface {
	arity() int
	call(in *Interpreter, args []interface{}) interface{}
}

// function is a user-declared function or method bundled
// with the environment captured at its declaration
type function struct {
	declaration   *ast.FunctionStmt
	closure       *Environment
	isInitializer bool
}

func (f function) arity() int {
	return len(f.declaration.Params)
}

func (f function) call(in *Interpreter, args []interface{}) (returnValue interface{}) {
	defer func() {
		if err := recover(); err != nil {
			v, ok := err.(returnSignal)
			if !ok {
				panic(err)
			}
			if f.isInitializer {
				returnValue = f.closure.GetAt(0, "this")
			} else {
				returnValue = v.value
			}
		}
	}()

	env := NewEnvironment(f.closure)
	for i, param := range f.declaration.Params {
		env.Define(param.Lexeme, args[i])
	}
	in.executeBlock(f.declaration.Body, env)

	if f.isInitializer {
		return f.closure.GetAt(0, "this")
	}
	return nil
}

// bind returns a copy of the method whose closure is wrapped with one
// extra environment carrying "this". The original closure is left
// untouched so the method can be bound to other receivers.
func (f function) bind(inst *instance) function {
	env := NewEnvironment(f.closure)
	env.Define("this", inst)
	return function{declaration: f.declaration, closure: env, isInitializer: f.isInitializer}
}

func (f function) String() string {
	return "<fn " + f.declaration.Name.Lexeme + ">"
}

// class is a runtime class object. Calling it constructs an instance.
type class struct {
	name       string
	superclass *class
	methods    map[string]function
}

// arity returns the arity of the class's initializer, if any
func (c *class) arity() int {
	if initializer, ok := c.findMethod("init"); ok {
		return initializer.arity()
	}
	return 0
}

// call allocates a new instance and runs the initializer, if any,
// bound to the new instance
func (c *class) call(in *Interpreter, args []interface{}) interface{} {
	inst := &instance{class: c}
	if initializer, ok := c.findMethod("init"); ok {
		initializer.bind(inst).call(in, args)
	}
	return inst
}

// findMethod looks up a method by name on the class and its ancestors
func (c *class) findMethod(name string) (function, bool) {
	if method, ok := c.methods[name]; ok {
		return method, true
	}
	if c.superclass != nil {
		return c.superclass.findMethod(name)
	}
	return function{}, false
}

func (c *class) String() string {
	return c.name
}

// instance is an instance of a class with an open field map
type instance struct {
	class  *class
	fields map[string]interface{}
}

// get returns the field with the given name or, failing that, the
// class method with that name bound to this instance
func (i *instance) get(name ast.Token) (interface{}, error) {
	if val, ok := i.fields[name.Lexeme]; ok {
		return val, nil
	}

	if method, ok := i.class.findMethod(name.Lexeme); ok {
		return method.bind(i), nil
	}

	return nil, runtimeError{name, fmt.Sprintf("Undefined property '%s'.", name.Lexeme)}
}

// set stores a field value. Fields are open: any name may be set.
func (i *instance) set(name ast.Token, value interface{}) {
	if i.fields == nil {
		i.fields = make(map[string]interface{})
	}
	i.fields[name.Lexeme] = value
}

func (i *instance) String() string {
	return i.class.name + " instance"
}

// clock is the sole built-in: seconds since the Unix epoch
type clock struct{}

func (c clock) arity() int {
	return 0
}

func (c clock) call(_ *Interpreter, _ []interface{}) interface{} {
	return float64(time.Now().Unix())
}

func (c clock) String() string {
	return "<native fn>"
}
