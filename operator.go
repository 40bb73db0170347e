package kafkaretry

// Operator is a thin, in-process control surface over a Store: the
// out-of-band path an operator (or an internal admin endpoint) uses to
// skip one poisoned record or drain a stuck partition. It deliberately
// does not expose any transport of its own; §1 scopes cross-process
// coordination of the control state out of this core.
type Operator struct {
	store Store
}

// NewOperator wraps store for operator use. store is typically the same
// Store passed to New/WithRetries for the dispatcher it controls.
func NewOperator(store Store) Operator {
	return Operator{store: store}
}

// IgnoreOnce installs a one-shot override: the next blocking retry
// matched by target is skipped, then the target reverts to Blocking.
func (o Operator) IgnoreOnce(target Target) {
	o.store.Set(target, IgnoringOnce{})
}

// IgnoreAll installs a durable override: every blocking retry matched by
// target is skipped until Resume is called.
func (o Operator) IgnoreAll(target Target) {
	o.store.Set(target, IgnoringAll{})
}

// Resume clears any override on target, restoring normal blocking-retry
// behavior.
func (o Operator) Resume(target Target) {
	o.store.Set(target, Blocking{})
}

// Inspect returns target's current state, including the in-flight record
// a blocking loop is currently holding, if any.
func (o Operator) Inspect(target Target) State {
	return o.store.Get(target)
}
