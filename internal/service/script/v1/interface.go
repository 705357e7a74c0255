// Package script defines the train script interpreter functionality.

package script

import "context"

// Interpreter defines a set of methods for validating and running train
// control scripts.
type Interpreter interface {
	Validate(script string) error
	Run(ctx context.Context, script string) (int, error)
	Stop()
}
