package ordershop

/***** Criteria *****/

// Criteria is the immutable root filter for order queries: an optional status
// filter and an optional case-sensitive substring match on the buyer's name.
// An empty Criteria matches every order. It is passed by value and never
// mutated after Finalize.
type Criteria struct {
	status         OrderStatus
	hasStatus      bool
	memberNamePart string
	hasMemberName  bool
}

// Status returns the status filter and whether one was set.
func (c Criteria) Status() (OrderStatus, bool) {
	return c.status, c.hasStatus
}

// MemberNameContains returns the buyer-name substring filter and whether one was set.
func (c Criteria) MemberNameContains() (string, bool) {
	return c.memberNamePart, c.hasMemberName
}

// IsEmpty reports whether no filter was set at all.
func (c Criteria) IsEmpty() bool {
	return !c.hasStatus && !c.hasMemberName
}

/***** CriteriaBuilder *****/

// CriteriaBuilder builds a generic order filter to be used in DB type-specific
// engine implementations to build queries for the specific query language.
//
// It sanitizes the input:
//   - an empty member-name substring ("") is dropped
//   - an empty status ("") is dropped
//
// so that only meaningful filters end up in the Criteria.
type CriteriaBuilder interface {
	// WithStatus adds a status filter to the Criteria.
	WithStatus(status OrderStatus) CriteriaBuilder

	// WithMemberNameContaining adds a case-sensitive substring filter
	// against the buyer's name to the Criteria.
	WithMemberNameContaining(namePart string) CriteriaBuilder

	// Finalize returns the immutable Criteria.
	Finalize() Criteria

	// MatchingAnyOrder directly creates an empty Criteria.
	MatchingAnyOrder() Criteria
}

// criteriaBuilder implements CriteriaBuilder.
type criteriaBuilder struct {
	criteria Criteria
}

// BuildCriteria starts building a Criteria.
func BuildCriteria() CriteriaBuilder {
	return &criteriaBuilder{}
}

func (b *criteriaBuilder) WithStatus(status OrderStatus) CriteriaBuilder {
	if status == "" {
		return b
	}

	b.criteria.status = status
	b.criteria.hasStatus = true

	return b
}

func (b *criteriaBuilder) WithMemberNameContaining(namePart string) CriteriaBuilder {
	if namePart == "" {
		return b
	}

	b.criteria.memberNamePart = namePart
	b.criteria.hasMemberName = true

	return b
}

func (b *criteriaBuilder) Finalize() Criteria {
	return b.criteria
}

func (b *criteriaBuilder) MatchingAnyOrder() Criteria {
	return Criteria{}
}
