package domain

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindNotFound, KindOf(NotFoundf("booking %d not found", 4)))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorizedf("nope")))
	assert.Equal(t, KindInvalidStateTransition, KindOf(InvalidTransitionf("bad edge")))
	assert.Equal(t, KindConflict, KindOf(Conflictf("overlap")))
	assert.Equal(t, KindValidation, KindOf(Validationf("bad input")))
	assert.Equal(t, KindValidation, KindOf(ErrNoMessagesExchanged))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("approve booking: %w", Conflictf("dates taken"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, IsBusinessError(err))
	assert.Equal(t, "approve booking: dates taken", err.Error())

	wrapped := errors.Wrap(ErrNoMessagesExchanged, "agree")
	assert.True(t, errors.Is(wrapped, ErrNoMessagesExchanged))
	assert.False(t, IsBusinessError(errors.New("boom")))
}

func TestKindMarkersMatchWithBothIs(t *testing.T) {
	tests := []struct {
		err    error
		marker error
	}{
		{NotFoundf("booking %d not found", 1), ErrNotFound},
		{Unauthorizedf("not yours"), ErrUnauthorized},
		{InvalidTransitionf("bad edge"), ErrInvalidStateTransition},
		{Conflictf("item 1 is already booked"), ErrConflict},
		{Validationf("bad input"), ErrValidation},
		{ErrNoMessagesExchanged, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.marker.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("approve: %w", errors.Wrap(tt.err, "tx"))
			assert.True(t, stderrors.Is(wrapped, tt.marker))
			assert.True(t, errors.Is(wrapped, tt.marker))
			assert.ErrorIs(t, wrapped, tt.marker)
			assert.False(t, stderrors.Is(wrapped, ErrConflict) && tt.marker != ErrConflict)
		})
	}

	assert.ErrorIs(t, fmt.Errorf("agree: %w", ErrNoMessagesExchanged), ErrNoMessagesExchanged)
	assert.Equal(t, "item 1 is already booked", Conflictf("item %d is already booked", 1).Error())
}
