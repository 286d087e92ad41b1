package domain

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// AllStatuses lists every order status in lifecycle order.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// successors is the complete transition table. Terminal states map to an empty set.
var successors = map[Status]map[Status]struct{}{
	StatusPending:        set(StatusConfirmed, StatusCancelled),
	StatusConfirmed:      set(StatusPreparing, StatusCancelled),
	StatusPreparing:      set(StatusReady, StatusCancelled),
	StatusReady:          set(StatusOutForDelivery, StatusCancelled),
	StatusOutForDelivery: set(StatusDelivered, StatusCancelled),
	StatusDelivered:      set(),
	StatusCancelled:      set(),
}

func init() {
	for _, s := range AllStatuses {
		next, ok := successors[s]
		if !ok {
			panic("domain: status " + string(s) + " missing from transition table")
		}
		for n := range next {
			if !n.Valid() {
				panic("domain: unknown successor " + string(n))
			}
		}
	}
}

func set(ss ...Status) map[Status]struct{} {
	m := make(map[Status]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}

func (s Status) Valid() bool {
	_, ok := successors[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(successors[s]) == 0
}

// CanTransition reports whether next is an allowed successor of s.
func (s Status) CanTransition(next Status) bool {
	_, ok := successors[s][next]
	return ok
}

// CheckTransition returns an InvalidTransitionError when next is not allowed from s.
func CheckTransition(current, next Status) error {
	if !next.Valid() {
		return NewValidationError("invalid status value %q", next)
	}
	if !current.CanTransition(next) {
		return &InvalidTransitionError{Current: current, Requested: next}
	}
	return nil
}
