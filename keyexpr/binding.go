package keyexpr

// Binding maps declared parameter names to the actual argument values of one
// call. A Binding is built per call and never shared.
type Binding map[string]any

// Bind pairs names with values by position.
//
// A nil names slice means the names are not known for this method; the
// result is an empty binding, and any expression that refers to a parameter
// fails later with an EvaluationError.
func Bind(names []string, values []any) (Binding, error) {
	if names == nil {
		return Binding{}, nil
	}
	if len(names) != len(values) {
		return nil, &BindingError{Names: len(names), Values: len(values)}
	}
	b := make(Binding, len(names))
	for i, name := range names {
		b[name] = values[i]
	}
	return b, nil
}
