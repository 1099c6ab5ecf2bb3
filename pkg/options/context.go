package options

// PublishContext selects which destination's values dynamic options resolve
// to for one publish call.
//
// A context instance must not be shared by concurrent publishes: the
// destination selected with Select must be the one the publish reads.
// Construct a fresh context per call, or serialize access externally.
type PublishContext struct {
	holder *OptionHolder
	index  int
}

// NewPublishContext wraps a resolved holder. The selection defaults to
// destination 0.
func NewPublishContext(holder *OptionHolder) *PublishContext {
	return &PublishContext{holder: holder}
}

// Select picks the destination whose values subsequent Value calls return.
func (c *PublishContext) Select(destinationID int) {
	c.index = destinationID
}

// SelectedDestination returns the currently selected destination id.
func (c *PublishContext) SelectedDestination() int { return c.index }

// Value resolves key against the selected destination. Dynamic options
// return the value at the selected index; static options return their
// single value.
func (c *PublishContext) Value(key string) (string, bool) {
	opt, ok := c.holder.Get(key)
	if !ok {
		return "", false
	}
	if opt.IsDynamic() {
		return opt.At(c.index)
	}
	return opt.Static(), true
}

// Holder exposes the underlying resolved holder.
func (c *PublishContext) Holder() *OptionHolder { return c.holder }
