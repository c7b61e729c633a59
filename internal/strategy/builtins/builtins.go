package builtins

import "finthrust/internal/strategy"

// Register adds every shipped strategy to the registry under its canonical
// name.
func Register(reg *strategy.Registry) {
	reg.Register("ma-cross", FromParams)
}
