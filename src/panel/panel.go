// Package panel composes the deadline clock, the status store, the cooldown
// gate and the action controller into the single consistent view of "what
// can this user do right now" for one proposal.
package panel

import (
	"context"
	"sync"
	"time"

	"github.com/commonsdao/liquidvote/src/panel/action"
	"github.com/commonsdao/liquidvote/src/panel/client"
	"github.com/commonsdao/liquidvote/src/panel/deadline"
	"github.com/commonsdao/liquidvote/src/panel/status"
	"github.com/commonsdao/liquidvote/src/panel/suggestion"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateExpired
)

// View is the effective interactive state every surface reads. Once State is
// StateExpired it never leaves it.
type View struct {
	State          State
	Deadline       deadline.Status
	Remaining      string
	Status         status.Snapshot
	ActionsEnabled bool
	CooldownActive bool
	Results        *client.VoteResults
	ResultsPending bool
}

// SuggestionView pairs a suggestion with its derived display state.
type SuggestionView struct {
	Suggestion suggestion.Suggestion
	Applied    bool
	CanApply   bool
}

type Panel struct {
	api        *client.Client
	store      *status.Store
	gate       *status.Gate
	controller *action.Controller

	mu       sync.Mutex
	proposal *client.Proposal
	loaded   bool
	expired  bool

	changed []func()
}

func New(api *client.Client, proposal *client.Proposal) *Panel {
	return newPanel(api, proposal, status.DefaultGateDelay)
}

func newPanel(api *client.Client, proposal *client.Proposal, gateDelay time.Duration) *Panel {
	p := &Panel{api: api, proposal: proposal}
	p.store = status.NewStore(proposal.ID, api)
	p.gate = status.NewGateWithDelay(func() {
		p.store.Refresh(context.Background())
	}, gateDelay)

	options := make([]int, 0, len(proposal.Options))
	for _, o := range proposal.Options {
		options = append(options, o.Number)
	}
	p.controller = action.NewController(proposal.ID, proposal.Deadline, options, api, p.store)
	p.controller.OnStatusChanged(p.notifyChanged)

	p.store.Subscribe(p.observe)
	return p
}

// Load performs the initial status fetch. The panel leaves StateLoading on
// the first successful snapshot.
func (p *Panel) Load(ctx context.Context) {
	p.store.Refresh(ctx)
}

func (p *Panel) observe(snap status.Snapshot) {
	p.mu.Lock()
	if snap.Known {
		p.loaded = true
	}
	expired := p.checkExpiredLocked()
	p.mu.Unlock()
	p.gate.Observe(snap, expired)
}

// checkExpiredLocked latches the expired state; a proposal never returns to
// an interactive state once its deadline has passed.
func (p *Panel) checkExpiredLocked() bool {
	if !p.expired && deadline.Classify(p.proposal.Deadline) == deadline.StatusExpired {
		p.expired = true
	}
	return p.expired
}

// Tick re-evaluates the deadline. The owning surface decides the cadence;
// the panel keeps no timer of its own for this.
func (p *Panel) Tick() {
	p.mu.Lock()
	expired := p.checkExpiredLocked()
	p.mu.Unlock()
	if expired {
		p.gate.Observe(p.store.Snapshot(), true)
	}
}

// View derives the current effective state from the deadline, the latest
// snapshot and the cooldown gate.
func (p *Panel) View() View {
	snap := p.store.Snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkExpiredLocked()

	v := View{
		Deadline:       deadline.Classify(p.proposal.Deadline),
		Remaining:      deadline.Remaining(p.proposal.Deadline),
		Status:         snap,
		CooldownActive: snap.Known && snap.CooldownActive,
	}
	switch {
	case p.expired:
		v.State = StateExpired
		v.Deadline = deadline.StatusExpired
		v.Results = p.proposal.Results
		v.ResultsPending = p.proposal.Results == nil
	case !p.loaded:
		v.State = StateLoading
	default:
		v.State = StateReady
		v.ActionsEnabled = snap.Known && !snap.CooldownActive
	}
	return v
}

func (p *Panel) CastVote(ctx context.Context, optionNumber int) error {
	return p.controller.CastVote(ctx, optionNumber)
}

func (p *Panel) Delegate(ctx context.Context, targetUser string) error {
	return p.controller.Delegate(ctx, targetUser)
}

// Suggestions fetches the proposal's suggestions and classifies each one
// against the current snapshot.
func (p *Panel) Suggestions(ctx context.Context) ([]SuggestionView, error) {
	list, err := p.api.Suggestions(ctx, p.proposal.ID)
	if err != nil {
		return nil, err
	}
	snap := p.store.Snapshot()
	ds := deadline.Classify(p.proposal.Deadline)

	views := make([]SuggestionView, 0, len(list))
	for _, s := range list {
		views = append(views, SuggestionView{
			Suggestion: s,
			Applied:    suggestion.IsApplied(s, snap),
			CanApply:   suggestion.CanApply(s, snap, ds),
		})
	}
	return views, nil
}

// ApplySuggestion turns an actionable suggestion into the matching vote or
// delegation submission.
func (p *Panel) ApplySuggestion(ctx context.Context, s suggestion.Suggestion) error {
	snap := p.store.Snapshot()
	ds := deadline.Classify(p.proposal.Deadline)
	if !suggestion.CanApply(s, snap, ds) {
		if ds == deadline.StatusExpired {
			return client.ErrPeriodEnded
		}
		return &client.ActionNotAllowedError{Reason: "suggestion is not actionable"}
	}
	switch s.Type {
	case suggestion.TypeVoteOption:
		return p.controller.CastVote(ctx, s.TargetOption)
	case suggestion.TypeDelegate:
		return p.controller.Delegate(ctx, s.TargetUser)
	}
	return &client.ActionNotAllowedError{Reason: "unknown suggestion type"}
}

// RefreshProposal refetches the proposal, picking up vote_results once the
// server has computed them.
func (p *Panel) RefreshProposal(ctx context.Context) error {
	fresh, err := p.api.Proposal(ctx, p.proposalID())
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.proposal.Results = fresh.Results
	p.mu.Unlock()
	return nil
}

// OnStatusChanged registers a sibling surface to be notified after any
// successful action once the store holds the fresh status.
func (p *Panel) OnStatusChanged(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, fn)
}

func (p *Panel) notifyChanged() {
	p.mu.Lock()
	fns := make([]func(), len(p.changed))
	copy(fns, p.changed)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// GateArmed reports whether a cooldown re-check is pending.
func (p *Panel) GateArmed() bool {
	return p.gate.Armed()
}

// Close cancels the cooldown timer and detaches the store. Late responses
// never mutate a closed panel.
func (p *Panel) Close() {
	p.gate.Stop()
	p.store.Close()
}

func (p *Panel) proposalID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.proposal.ID
}
