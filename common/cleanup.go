package common

// Cleanup collects actions that must run on every exit path of a scope.
// Actions run in reverse order of registration, like deferred calls.
type Cleanup struct {
	cleanupActions []func()
}

func (c *Cleanup) AddAction(action func()) {
	c.cleanupActions = append(c.cleanupActions, action)
}

func (c *Cleanup) Do() {
	actions := c.cleanupActions
	c.Discard()
	for i := len(actions) - 1; i >= 0; i-- {
		actions[i]()
	}
}

// Discard forgets the registered actions, e.g. once ownership of the resources was handed over.
func (c *Cleanup) Discard() {
	c.cleanupActions = nil
}
