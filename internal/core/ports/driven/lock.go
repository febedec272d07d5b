package driven

// RunLocker prevents two runs from reconciling the same namespace at once.
type RunLocker interface {
	// TryLock acquires the lock for namespace without blocking.
	// It fails with domain.ErrRunInProgress if another holder exists.
	// The returned function releases the lock.
	TryLock(namespace string) (release func() error, err error)
}
