package bank

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidate matches every *InvalidateError via errors.Is.
var ErrInvalidate = errors.New("bank: invalidate failed")

// InvalidateError reports a failed Invalidate. A failed bump leaves the old
// generation in place, so a stored image may still be served until its TTL.
type InvalidateError struct {
	Namespace string
	Key       string
	BumpErr   error // generation store
	DelErr    error // provider; set only together with BumpErr
}

func (e *InvalidateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bank %s: invalidate %q:", e.Namespace, e.Key)
	if e.BumpErr != nil {
		fmt.Fprintf(&sb, " bump: %v", e.BumpErr)
	}
	if e.DelErr != nil {
		if e.BumpErr != nil {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, " delete: %v", e.DelErr)
	}
	return sb.String()
}

func (e *InvalidateError) Is(target error) bool { return target == ErrInvalidate }

func (e *InvalidateError) Unwrap() []error {
	return slices.DeleteFunc([]error{e.BumpErr, e.DelErr}, func(err error) bool { return err == nil })
}
