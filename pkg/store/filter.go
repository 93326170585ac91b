package store

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter narrows a list operation. Equals entries must all match a record
// for it to be included; values are compared by their string rendering, so
// "3" matches the number 3. Where is an optional boolean expression
// evaluated against each record with its fields in scope.
type Filter struct {
	Equals map[string]string
	Where  string
}

// Empty reports whether the filter passes every record through.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.Equals) == 0 && f.Where == "")
}

// compiled pairs a Filter with its prepared Where program.
type compiled struct {
	filter  *Filter
	program *vm.Program
}

// compileFilter prepares a filter for evaluation. An unparsable Where
// expression is a validation failure of the request, not of the store.
func compileFilter(resource string, f *Filter) (*compiled, error) {
	c := &compiled{filter: f}
	if f == nil || f.Where == "" {
		return c, nil
	}

	program, err := expr.Compile(f.Where, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, &ValidationError{
			Resource: resource,
			Message:  fmt.Sprintf("invalid where expression: %v", err),
		}
	}
	c.program = program
	return c, nil
}

// matches evaluates one record against the compiled filter.
func (c *compiled) matches(resource string, record map[string]any) (bool, error) {
	if c.filter != nil {
		for field, want := range c.filter.Equals {
			if fmt.Sprintf("%v", record[field]) != want {
				return false, nil
			}
		}
	}

	if c.program == nil {
		return true, nil
	}

	out, err := expr.Run(c.program, record)
	if err != nil {
		return false, &ValidationError{
			Resource: resource,
			Message:  fmt.Sprintf("where expression failed: %v", err),
		}
	}
	ok, isBool := out.(bool)
	return isBool && ok, nil
}
