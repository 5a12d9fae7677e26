package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	confirmationCodeLength = 7
	maxAllocationAttempts  = 10
)

var errCodeCollision = errors.New("confirmation code collision")

type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeAllocator hands out confirmation codes that are unique among all
// reservations at the moment of allocation. The existence pre-check is a
// check-then-use race against concurrent allocators; the store's unique index
// is the actual safety net, and an insert-time violation means "allocate
// again", not a user-facing error.
type CodeAllocator struct {
	store CodeChecker
}

func NewCodeAllocator(store CodeChecker) *CodeAllocator {
	return &CodeAllocator{store: store}
}

// Allocate draws fresh codes until one is unused, bounded at ten attempts so
// a misbehaving store cannot loop forever.
func (a *CodeAllocator) Allocate(ctx context.Context) (string, error) {
	var code string
	backoff := retry.WithMaxRetries(maxAllocationAttempts-1, retry.NewConstant(time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate, err := randomNumericCode(confirmationCodeLength)
		if err != nil {
			return err
		}
		exists, err := a.store.CodeExists(ctx, candidate)
		if err != nil {
			return err
		}
		if exists {
			return retry.RetryableError(errCodeCollision)
		}
		code = candidate
		return nil
	})
	if err != nil {
		if errors.Is(err, errCodeCollision) {
			return "", ErrCodeSpaceExhausted
		}
		return "", err
	}
	return code, nil
}

func randomNumericCode(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
