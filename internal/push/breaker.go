package push

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
)

// BreakerSender stops calling a failing push service for a while instead of
// paying a timeout on every notification.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerSender(next Sender, cb *gobreaker.CircuitBreaker) *BreakerSender {
	return &BreakerSender{next: next, cb: cb}
}

func (b *BreakerSender) Send(ctx context.Context, target Target, msg Message) error {
	res, err := b.cb.Execute(func() (interface{}, error) {
		err := b.next.Send(ctx, target, msg)
		// An expired subscription or a target without a channel says nothing
		// about the health of the push service.
		if errors.Is(err, ErrSubscriptionGone) || errors.Is(err, ErrNoChannel) {
			return err, nil
		}
		return nil, err
	})
	if err != nil {
		return err
	}
	if inner, ok := res.(error); ok {
		return inner
	}
	return nil
}

func (b *BreakerSender) State() gobreaker.State {
	return b.cb.State()
}
