package container

import "sync"

var (
	globalMu       sync.Mutex
	globalInstance *Container
)

// GetInstance returns the process-wide container, creating it on first use.
//
//	// Laravel: Container::getInstance()
func GetInstance() *Container {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalInstance == nil {
		globalInstance = New()
	}
	return globalInstance
}

// SetInstance replaces the process-wide container and returns it. Passing nil
// clears it so the next GetInstance creates a fresh one.
//
//	// Laravel: Container::setInstance($container)
func SetInstance(c *Container) *Container {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalInstance = c
	return c
}
