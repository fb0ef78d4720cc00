package user

import "fmt"

// Policy is the enforcement configuration of one user.
type Policy struct {
	Whitelisted bool
	Disabled    bool
	// MaxStreams overrides the global device limit. Nil means "use default".
	MaxStreams *int
}

// DefaultPolicy is applied to users the store does not know or cannot read.
func DefaultPolicy() Policy {
	return Policy{}
}

// Limit resolves the effective device limit. A missing override always falls
// back to the global default, never to zero.
func (p Policy) Limit(globalDefault int) int {
	if p.MaxStreams != nil && *p.MaxStreams >= 1 {
		return *p.MaxStreams
	}
	return globalDefault
}

// Overrides is a partial update of a user's policy and contact fields.
// Nil fields leave the stored value untouched.
type Overrides struct {
	Whitelisted *bool
	Disabled    *bool
	MaxStreams  *int
	Notes       *string
	Email       *string
	Phone       *string
	// ClearMaxStreams resets the limit to the global default.
	ClearMaxStreams bool
}

func (o Overrides) Validate() error {
	if o.MaxStreams != nil && *o.MaxStreams < 1 {
		return fmt.Errorf("max streams must be at least 1, got %d", *o.MaxStreams)
	}
	return nil
}

// IsEmpty reports whether applying o would change nothing.
func (o Overrides) IsEmpty() bool {
	return o.Whitelisted == nil && o.Disabled == nil && o.MaxStreams == nil &&
		o.Notes == nil && o.Email == nil && o.Phone == nil && !o.ClearMaxStreams
}
