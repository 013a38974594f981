package editor

import "errors"

var (
	// ErrSessionNotFound is returned when an operation targets a session id
	// the registry does not know (never opened, closed, or reaped).
	ErrSessionNotFound = errors.New("editor: session not found")

	// ErrSessionClosed is returned by operations on a session that has been
	// closed but whose handle is still held by a caller.
	ErrSessionClosed = errors.New("editor: session closed")

	// ErrProjectNotFound is returned when a project id has no row in the store.
	ErrProjectNotFound = errors.New("editor: project not found")

	// ErrPageNotFound is returned when a page id resolves to no file through
	// the document's fallback chain.
	ErrPageNotFound = errors.New("editor: page not found")

	// ErrStale is returned when an operation refers to state the document no
	// longer contains, such as restoring a revision that was deleted.
	ErrStale = errors.New("editor: stale reference")

	// ErrGenerateDisabled is returned when component insertion needs the
	// generate collaborator but its route is bound to noop.
	ErrGenerateDisabled = errors.New("editor: generate collaborator disabled")

	// ErrNothingCopied is returned by paste when the session clipboard is empty.
	ErrNothingCopied = errors.New("editor: clipboard empty")

	// ErrPreviewUnavailable is returned by operations that need a live
	// surface while the session runs headless.
	ErrPreviewUnavailable = errors.New("editor: live preview unavailable")
)
