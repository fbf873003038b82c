package vm

// Stack is the operand stack of one execution. Values are pushed and
// popped at the same end.
type Stack struct {
	values []Value
}

func (s *Stack) Push(v Value) {
	s.values = append(s.values, v)
}

// Pop removes the top value. It reports false on an empty stack.
func (s *Stack) Pop() (Value, bool) {
	if len(s.values) == 0 {
		return Value{}, false
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, true
}

func (s *Stack) Len() int {
	return len(s.values)
}
