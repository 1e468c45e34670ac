package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while a provider's breaker is open. Callers
// treat it like any other provider error: the turn degrades, it never
// crashes.
var ErrCircuitOpen = errors.New("llm provider circuit open")

// Provider outages show up as bursts of identical failures across turns, so
// the breaker trips on consecutive failures and retries after a cooldown
// instead of letting every turn wait out a full request timeout against a
// dead endpoint.
const (
	breakerTripAfter      = 3
	breakerCooldown       = 30 * time.Second
	breakerHalfOpenBudget = 2 // requests allowed through while half-open
)

// providerBreaker shields one provider client. Each client owns its own
// breaker so an Ollama outage never opens the circuit for OpenAI traffic.
type providerBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func newProviderBreaker(name string) *providerBreaker {
	return &providerBreaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: breakerHalfOpenBudget,
			Timeout:     breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTripAfter
			},
		}),
	}
}

// call runs one provider request through the breaker. A context already
// cancelled before the call is not charged against the breaker counts; the
// provider did nothing wrong.
func (b *providerBreaker) call(ctx context.Context, fn func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		return "", err
	}
	return result.(string), nil
}
