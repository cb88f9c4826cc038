package ordershop

import (
	"errors"
	"slices"
)

var (
	// ErrIncompatiblePaginationRequest is returned when pagination is combined
	// with a loading strategy that can not honor it: the collection join-fetch
	// strategy and the flat projection both multiply root rows, so offset/limit
	// would count rows instead of distinct orders. This is a caller
	// configuration error, never a silent fallback.
	ErrIncompatiblePaginationRequest = errors.New(
		"pagination is incompatible with the requested loading strategy")

	// ErrInvalidPageRequest is returned for a negative offset or a non-positive limit.
	ErrInvalidPageRequest = errors.New("page request needs offset >= 0 and limit > 0")
)

/***** Association *****/

// Association names a relation of the Order root that a caller can ask the
// loader to populate.
type Association string

const (
	// AssociationMember is the Order -> Member to-one relation.
	AssociationMember Association = "member"

	// AssociationDelivery is the Order -> Delivery to-one relation.
	AssociationDelivery Association = "delivery"

	// AssociationLineItems is the Order -> OrderLines to-many relation.
	AssociationLineItems Association = "line_items"
)

// IsCollection reports the cardinality of the association from the Order's
// perspective. To-one relations never multiply the root row count on a join;
// to-many relations do, which is what the loader's strategy selection is about.
func (a Association) IsCollection() bool {
	return a == AssociationLineItems
}

/***** AssociationSet *****/

// AssociationSet is the immutable set of associations a caller wants populated.
// Build it with WithAssociations, which sanitizes the input:
//   - removing empty associations ("")
//   - sorting the associations
//   - removing duplicate associations
type AssociationSet struct {
	associations []Association
}

// WithAssociations creates an AssociationSet from the given associations.
func WithAssociations(associations ...Association) AssociationSet {
	sanitized := make([]Association, 0, len(associations))

	for _, association := range associations {
		if association == "" {
			continue
		}

		sanitized = append(sanitized, association)
	}

	slices.Sort(sanitized)
	sanitized = slices.Compact(sanitized)

	return AssociationSet{associations: sanitized}
}

// NoAssociations creates an empty AssociationSet: only the root is loaded.
func NoAssociations() AssociationSet {
	return AssociationSet{}
}

// Associations returns the sanitized associations.
func (s AssociationSet) Associations() []Association {
	return s.associations
}

// Contains reports whether the given association was requested.
func (s AssociationSet) Contains(association Association) bool {
	return slices.Contains(s.associations, association)
}

// Collections returns the requested to-many associations.
func (s AssociationSet) Collections() []Association {
	collections := make([]Association, 0, len(s.associations))

	for _, association := range s.associations {
		if association.IsCollection() {
			collections = append(collections, association)
		}
	}

	return collections
}

// CollectionCount returns the number of requested to-many associations.
func (s AssociationSet) CollectionCount() int {
	return len(s.Collections())
}

/***** PageRequest *****/

// PageRequest is an optional offset/limit for the root result.
// The zero value means "no pagination requested".
type PageRequest struct {
	offset    int
	limit     int
	requested bool
}

// NoPagination creates the zero PageRequest.
func NoPagination() PageRequest {
	return PageRequest{}
}

// BuildPageRequest creates a PageRequest with the given offset and limit.
func BuildPageRequest(offset int, limit int) (PageRequest, error) {
	if offset < 0 || limit <= 0 {
		return PageRequest{}, ErrInvalidPageRequest
	}

	return PageRequest{offset: offset, limit: limit, requested: true}, nil
}

// Requested reports whether pagination was asked for.
func (p PageRequest) Requested() bool {
	return p.requested
}

// Offset returns the requested offset.
func (p PageRequest) Offset() int {
	return p.offset
}

// Limit returns the requested limit.
func (p PageRequest) Limit() int {
	return p.limit
}
