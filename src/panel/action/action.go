// Package action orchestrates vote and delegation submissions for one
// proposal: local preconditions, the server call, and the status refresh
// that fans out to sibling surfaces.
package action

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/commonsdao/liquidvote/src/panel/client"
	"github.com/commonsdao/liquidvote/src/panel/deadline"
)

// ErrActionInFlight is returned locally when a second submission is
// attempted while one is still pending for the same proposal.
var ErrActionInFlight = errors.New("another action is already in flight")

// API is the write half of the REST collaborator.
type API interface {
	CastVote(ctx context.Context, proposalID string, optionNumber int) error
	Delegate(ctx context.Context, proposalID, targetUser string) error
}

// Refresher re-fetches the authoritative status after a successful action.
type Refresher interface {
	Refresh(ctx context.Context)
}

type Controller struct {
	proposalID string
	deadline   time.Time
	options    map[int]bool
	api        API
	store      Refresher

	mu        sync.Mutex
	inFlight  bool
	listeners []func()
}

func NewController(proposalID string, dl time.Time, options []int, api API, store Refresher) *Controller {
	set := make(map[int]bool, len(options))
	for _, n := range options {
		set[n] = true
	}
	return &Controller{
		proposalID: proposalID,
		deadline:   dl,
		options:    set,
		api:        api,
		store:      store,
	}
}

// OnStatusChanged registers a callback fired after every submission the
// server ruled on, once the status store has been refreshed.
func (c *Controller) OnStatusChanged(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// CastVote submits a vote for optionNumber. The option must exist on the
// proposal and the voting period must still be open; violations are rejected
// locally without a network call.
func (c *Controller) CastVote(ctx context.Context, optionNumber int) error {
	if deadline.Classify(c.deadline) == deadline.StatusExpired {
		return client.ErrPeriodEnded
	}
	if !c.options[optionNumber] {
		return &client.ActionNotAllowedError{Reason: "unknown option number"}
	}
	return c.submit(ctx, func(ctx context.Context) error {
		return c.api.CastVote(ctx, c.proposalID, optionNumber)
	})
}

// Delegate submits a delegation to targetUser. The target only needs to be
// non-empty here; the server is the authority on whether it names a real
// member.
func (c *Controller) Delegate(ctx context.Context, targetUser string) error {
	if deadline.Classify(c.deadline) == deadline.StatusExpired {
		return client.ErrPeriodEnded
	}
	if strings.TrimSpace(targetUser) == "" {
		return &client.ActionNotAllowedError{Reason: "empty delegate target"}
	}
	return c.submit(ctx, func(ctx context.Context) error {
		return c.api.Delegate(ctx, c.proposalID, targetUser)
	})
}

// InFlight reports whether a submission is pending; surfaces use it for the
// busy state on their controls.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Controller) submit(ctx context.Context, call func(context.Context) error) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrActionInFlight
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	err := call(ctx)
	if err != nil {
		var netErr *client.NetworkError
		if errors.As(err, &netErr) {
			// The server never ruled; there is no fresh truth to fetch.
			return err
		}
		// A rejection is a verdict: whatever state produced it (an active
		// cooldown, a closed period) lives server-side, so refetch it.
		c.store.Refresh(ctx)
		c.fanout()
		return err
	}

	c.store.Refresh(ctx)
	c.fanout()
	return nil
}

func (c *Controller) fanout() {
	c.mu.Lock()
	listeners := make([]func(), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
