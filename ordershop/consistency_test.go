package ordershop_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/shopkernel/ordershop-go/ordershop"
)

func Test_GetConsistencyLevel_DefaultsToStrong(t *testing.T) {
	// act
	level := GetConsistencyLevel(context.Background())

	// assert
	assert.Equal(t, StrongConsistency, level)
	assert.Equal(t, "strong", level.String())
}

func Test_GetConsistencyLevel_ReadsThePreferenceFromTheContext(t *testing.T) {
	// arrange
	ctx := context.Background()

	// act
	eventualCtx := WithEventualConsistency(ctx)
	strongAgainCtx := WithStrongConsistency(eventualCtx)

	// assert
	assert.Equal(t, EventualConsistency, GetConsistencyLevel(eventualCtx))
	assert.Equal(t, "eventual", GetConsistencyLevel(eventualCtx).String())
	assert.Equal(t, StrongConsistency, GetConsistencyLevel(strongAgainCtx))
}
