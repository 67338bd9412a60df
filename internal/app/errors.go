package service

import (
	"fmt"

	"github.com/okian/simcat/internal/adapters/repository"
)

// ErrNotStarted is returned by read operations before Start succeeded. It
// matches repository.ErrNotLoaded as well.
var ErrNotStarted = fmt.Errorf("service not started: %w", repository.ErrNotLoaded)
