package action

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commonsdao/liquidvote/src/panel/client"
)

type fakeAPI struct {
	mu        sync.Mutex
	voteCalls []int
	delCalls  []string
	block     chan struct{}
	err       error
}

func (f *fakeAPI) CastVote(_ context.Context, _ string, option int) error {
	f.mu.Lock()
	f.voteCalls = append(f.voteCalls, option)
	block := f.block
	err := f.err
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeAPI) Delegate(_ context.Context, _ string, target string) error {
	f.mu.Lock()
	f.delCalls = append(f.delCalls, target)
	err := f.err
	f.mu.Unlock()
	return err
}

func (f *fakeAPI) votes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.voteCalls...)
}

type fakeRefresher struct{ count atomic.Int32 }

func (f *fakeRefresher) Refresh(context.Context) { f.count.Add(1) }

func newTestController(api *fakeAPI, store *fakeRefresher) *Controller {
	return NewController("p1", time.Now().Add(time.Hour), []int{1, 2, 3}, api, store)
}

func TestCastVoteSuccessRefreshesAndNotifies(t *testing.T) {
	api := &fakeAPI{}
	store := &fakeRefresher{}
	ctrl := newTestController(api, store)

	notified := 0
	ctrl.OnStatusChanged(func() { notified++ })

	require.NoError(t, ctrl.CastVote(context.Background(), 2))
	assert.Equal(t, []int{2}, api.votes())
	assert.Equal(t, int32(1), store.count.Load())
	assert.Equal(t, 1, notified)
}

func TestCastVoteRejectsExpiredProposalLocally(t *testing.T) {
	api := &fakeAPI{}
	ctrl := NewController("p1", time.Now().Add(-time.Minute), []int{1}, api, &fakeRefresher{})

	err := ctrl.CastVote(context.Background(), 1)
	assert.ErrorIs(t, err, client.ErrPeriodEnded)
	assert.Empty(t, api.votes(), "no network call for an expired proposal")
}

func TestCastVoteRejectsUnknownOption(t *testing.T) {
	api := &fakeAPI{}
	ctrl := newTestController(api, &fakeRefresher{})

	var notAllowed *client.ActionNotAllowedError
	err := ctrl.CastVote(context.Background(), 99)
	require.ErrorAs(t, err, &notAllowed)
	assert.Empty(t, api.votes())
}

func TestDelegateRejectsEmptyTarget(t *testing.T) {
	api := &fakeAPI{}
	ctrl := newTestController(api, &fakeRefresher{})

	var notAllowed *client.ActionNotAllowedError
	err := ctrl.Delegate(context.Background(), "   ")
	require.ErrorAs(t, err, &notAllowed)
	assert.Empty(t, api.delCalls)
}

func TestSecondSubmissionWhileInFlightIsRejected(t *testing.T) {
	block := make(chan struct{})
	api := &fakeAPI{block: block}
	ctrl := newTestController(api, &fakeRefresher{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ctrl.CastVote(context.Background(), 1)
	}()

	// Wait until the first call reaches the API.
	require.Eventually(t, func() bool { return len(api.votes()) == 1 }, time.Second, time.Millisecond)
	require.True(t, ctrl.InFlight())

	err := ctrl.CastVote(context.Background(), 2)
	assert.ErrorIs(t, err, ErrActionInFlight)

	close(block)
	wg.Wait()
	assert.Equal(t, []int{1}, api.votes(), "only one network call may be observed")
	assert.False(t, ctrl.InFlight())
}

func TestRejectionRefreshesAndReturnsToIdle(t *testing.T) {
	api := &fakeAPI{err: &client.RateLimitedError{RetryAfter: 45 * time.Second}}
	store := &fakeRefresher{}
	ctrl := newTestController(api, store)

	notified := 0
	ctrl.OnStatusChanged(func() { notified++ })

	err := ctrl.CastVote(context.Background(), 1)
	var rl *client.RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 45*time.Second, rl.RetryAfter)

	assert.False(t, ctrl.InFlight(), "controller returns to idle after failure")
	assert.Equal(t, int32(1), store.count.Load(), "a server rejection still refetches the status")
	assert.Equal(t, 1, notified)

	// Retry is allowed once the condition clears.
	api.mu.Lock()
	api.err = nil
	api.mu.Unlock()
	require.NoError(t, ctrl.CastVote(context.Background(), 1))
	assert.Equal(t, int32(2), store.count.Load())
}

func TestNetworkFailureSkipsRefresh(t *testing.T) {
	api := &fakeAPI{err: &client.NetworkError{Err: errors.New("connection refused")}}
	store := &fakeRefresher{}
	ctrl := newTestController(api, store)

	notified := 0
	ctrl.OnStatusChanged(func() { notified++ })

	var netErr *client.NetworkError
	require.ErrorAs(t, ctrl.CastVote(context.Background(), 1), &netErr)
	assert.Equal(t, int32(0), store.count.Load(), "no verdict, nothing fresh to fetch")
	assert.Equal(t, 0, notified)
	assert.False(t, ctrl.InFlight())
}

func TestDelegateSuccess(t *testing.T) {
	api := &fakeAPI{}
	store := &fakeRefresher{}
	ctrl := newTestController(api, store)

	require.NoError(t, ctrl.Delegate(context.Background(), "alice"))
	assert.Equal(t, []string{"alice"}, api.delCalls)
	assert.Equal(t, int32(1), store.count.Load())
}
