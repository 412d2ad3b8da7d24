package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNetwork indicates a transport failure or timeout talking to the remote server
	ErrNetwork = errors.New("remote server is unreachable")

	// ErrNotFound indicates a credential lookup matched no profile
	ErrNotFound = errors.New("profile not found")

	// ErrRemoteRejected indicates the remote server refused a change
	ErrRemoteRejected = errors.New("remote server rejected the request")

	// ErrAuthFailed indicates the remote server refused the credentials
	ErrAuthFailed = errors.New("authentication failed")

	// ErrSerialization indicates a persisted document is malformed or unreadable
	ErrSerialization = errors.New("persisted document is malformed")

	// ErrPartialCommit indicates a patch was accepted but the local mirror could not be refreshed
	ErrPartialCommit = errors.New("favorites saved remotely but local copy is stale")

	// ErrCoordinatorClosed indicates a request was submitted after shutdown
	ErrCoordinatorClosed = errors.New("favorites coordinator is closed")
)
