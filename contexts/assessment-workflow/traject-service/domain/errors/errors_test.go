package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{fmt.Errorf("%w: bad status", ErrValidation), KindValidation},
		{fmt.Errorf("%w: already Review", ErrConflict), KindConflict},
		{fmt.Errorf("%w: coach may not", ErrForbidden), KindForbidden},
		{fmt.Errorf("%w: traject t-1", ErrNotFound), KindNotFound},
		{fmt.Errorf("advance: %w", ErrTransactionAborted), KindTransient},
		{context.DeadlineExceeded, KindTransient},
		{errors.New("disk on fire"), KindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.err), fmt.Sprint(tc.err))
	}
}

func TestIsBusiness(t *testing.T) {
	assert.True(t, IsBusiness(fmt.Errorf("%w: x", ErrForbidden)))
	assert.False(t, IsBusiness(ErrTransactionAborted))
	assert.False(t, IsBusiness(errors.New("boom")))
	assert.False(t, IsBusiness(nil))
}
