package catalog

// EntityKind identifies which entity a status transition happened on.
type EntityKind string

const (
	// KindCategory is a transition on a category.
	KindCategory EntityKind = "category"
	// KindProduct is a transition on a product.
	KindProduct EntityKind = "product"
)

// Transition describes a committed or pending status change on one entity.
// CategoryStatus carries the status of the product's category and is only
// consulted for product transitions.
type Transition struct {
	Kind           EntityKind
	Old            Status
	New            Status
	CategoryStatus Status
}

// Action is the cascading mutation a transition requires on the related
// entity set.
type Action int

const (
	// ActionNone requires no cascade.
	ActionNone Action = iota
	// ActionDeactivateProducts deactivates every ACTIVE product under the
	// category. Always applied asynchronously through the event pipeline.
	ActionDeactivateProducts
	// ActionActivateCategory reactivates the product's category. Always
	// applied synchronously inside the triggering transaction.
	ActionActivateCategory
)

// Synchronous reports whether the action must run inside the triggering
// transaction. Reactivation touches one row and must be immediately visible;
// deactivation can touch many rows and is load-shed to the async pipeline.
func (a Action) Synchronous() bool {
	return a == ActionActivateCategory
}

// String returns a readable action name for logs.
func (a Action) String() string {
	switch a {
	case ActionDeactivateProducts:
		return "deactivate-products"
	case ActionActivateCategory:
		return "activate-category"
	default:
		return "none"
	}
}

// Decide maps a status transition to the cascade it requires. Pure function,
// no I/O: all policy about which direction cascades, and whether it runs
// synchronously, lives here.
func Decide(t Transition) Action {
	switch t.Kind {
	case KindCategory:
		if t.Old == StatusActive && t.New == StatusInactive {
			return ActionDeactivateProducts
		}
		return ActionNone
	case KindProduct:
		// Covers both an existing product flipping INACTIVE->ACTIVE and a
		// product created ACTIVE (zero-value Old) under an inactive category.
		if t.New == StatusActive && t.Old != StatusActive && t.CategoryStatus == StatusInactive {
			return ActionActivateCategory
		}
		return ActionNone
	default:
		return ActionNone
	}
}
