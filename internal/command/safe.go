package command

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// runSafely runs fn and turns a panic into a runtime-kind error tagged with scope.
func runSafely(scope string, fn func() error) (err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		log.Error().
			Str("scope", scope).
			Interface("panic", recovered).
			Bytes("stack", debug.Stack()).
			Msg("panic recovered")
		err = NewError(KindRuntime, scope, fmt.Errorf("panic recovered: %v", recovered))
	}()

	return fn()
}
