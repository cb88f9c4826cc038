package ordershop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/shopkernel/ordershop-go/ordershop"
)

func Test_WithAssociations_SanitizesTheInput(t *testing.T) {
	// act
	associations := WithAssociations(
		AssociationLineItems,
		"",
		AssociationMember,
		AssociationLineItems,
		AssociationDelivery,
	)

	// assert
	assert.Equal(
		t,
		[]Association{AssociationDelivery, AssociationLineItems, AssociationMember},
		associations.Associations(),
		"empty entries must be dropped, the rest sorted and deduplicated",
	)
}

func Test_AssociationSet_Contains(t *testing.T) {
	// arrange
	associations := WithAssociations(AssociationMember, AssociationLineItems)

	// assert
	assert.True(t, associations.Contains(AssociationMember))
	assert.True(t, associations.Contains(AssociationLineItems))
	assert.False(t, associations.Contains(AssociationDelivery))
}

func Test_AssociationSet_Collections(t *testing.T) {
	// arrange
	associations := WithAssociations(AssociationMember, AssociationDelivery, AssociationLineItems)

	// assert
	assert.Equal(t, []Association{AssociationLineItems}, associations.Collections())
	assert.Equal(t, 1, associations.CollectionCount())
}

func Test_NoAssociations_HasNoCollections(t *testing.T) {
	// arrange
	associations := NoAssociations()

	// assert
	assert.Empty(t, associations.Associations())
	assert.Equal(t, 0, associations.CollectionCount())
}

func Test_BuildPageRequest(t *testing.T) {
	// act
	page, err := BuildPageRequest(10, 25)

	// assert
	assert.NoError(t, err)
	assert.True(t, page.Requested())
	assert.Equal(t, 10, page.Offset())
	assert.Equal(t, 25, page.Limit())
}

func Test_BuildPageRequest_RejectsInvalidInput(t *testing.T) {
	// act + assert
	_, err := BuildPageRequest(-1, 25)
	assert.ErrorIs(t, err, ErrInvalidPageRequest)

	_, err = BuildPageRequest(0, 0)
	assert.ErrorIs(t, err, ErrInvalidPageRequest)

	_, err = BuildPageRequest(0, -5)
	assert.ErrorIs(t, err, ErrInvalidPageRequest)
}

func Test_NoPagination_IsNotRequested(t *testing.T) {
	// assert
	assert.False(t, NoPagination().Requested())
}
