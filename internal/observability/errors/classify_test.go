package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/launchlens/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error", err: fmt.Errorf("wrap: %w", apperrors.Unavailable(errors.New("dial"), "dequeue")), want: "unavailable"},
		{name: "canceled", err: fmt.Errorf("op: %w", context.Canceled), want: "canceled"},
		{name: "deadline", err: context.DeadlineExceeded, want: "timeout"},
		{name: "innermost type", err: fmt.Errorf("open: %w", &fs.PathError{Op: "open", Err: errors.New("x")}), want: "errors_errorstring"},
		{name: "plain", err: errors.New("boom"), want: "errors_errorstring"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
