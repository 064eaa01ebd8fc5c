package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/odysseus0/rssant/internal/api"
)

const (
	exitInternal     = 1
	exitInvalidInput = 2
	exitNotFound     = 3
)

func ErrorExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, api.ErrValidation):
		return exitInvalidInput
	case errors.Is(err, api.ErrNotFound):
		return exitNotFound
	default:
		return exitInternal
	}
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, api.ErrValidation):
		return "invalid-input"
	case errors.Is(err, api.ErrNotFound):
		return "not-found"
	case errors.Is(err, api.ErrTransport):
		return "transport"
	default:
		return "internal"
	}
}

func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error [%s]: %v", errorClass(err), err)
}

func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatError(err))
}
