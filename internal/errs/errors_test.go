package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrAlreadyPosted, "ALREADY_POSTED"},
		{fmt.Errorf("post ledgers 2024-01-02: %w", ErrNothingToPost), "NOTHING_TO_POST"},
		{fmt.Errorf("%w: 1.1.01", ErrAccountNotFound), "ACCOUNT_NOT_FOUND"},
		{fmt.Errorf("year 2024: %w", ErrPeriodClosed), "PERIOD_CLOSED"},
		{fmt.Errorf("after 3 attempts: %w", ErrTransient), "STORE_UNAVAILABLE"},
		{errors.New("boom"), "INTERNAL"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Code(tc.err))
	}
}
