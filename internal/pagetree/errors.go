package pagetree

import "github.com/pkg/errors"

// Structural errors. They are fatal for the run that meets them.
var (
	ErrNoRoot      = errors.New("pagetree: no page tree root")
	ErrNoParent    = errors.New("pagetree: page has no parent")
	ErrNoMediaBox  = errors.New("pagetree: no media box")
	ErrTooDeep     = errors.New("pagetree: page tree too deep")
	ErrCycle       = errors.New("pagetree: cycle in page tree")
	ErrPageNumber  = errors.New("pagetree: page number out of range")
	ErrInvalidKids = errors.New("pagetree: invalid kids entry")
)
