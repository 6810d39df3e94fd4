// Package client consumes the voting REST collaborator and maps its response
// codes onto a typed error taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/commonsdao/liquidvote/src/panel/status"
	"github.com/commonsdao/liquidvote/src/panel/suggestion"
)

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type Option struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

type OptionTally struct {
	Number int `json:"number"`
	Votes  int `json:"votes"`
}

// VoteResults is the server-computed aggregate; the panel treats it as an
// opaque read-only artifact.
type VoteResults struct {
	Options           []OptionTally `json:"options"`
	TotalParticipants int           `json:"total_participants"`
	TotalDirectVoters int           `json:"total_direct_voters"`
	WinningOption     *int          `json:"winning_option"`
}

type Proposal struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Options     []Option     `json:"options"`
	Deadline    time.Time    `json:"voting_deadline"`
	Results     *VoteResults `json:"vote_results"`
}

type Category struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by"`
}

type statusResponse struct {
	UserStatus struct {
		HasVoted     bool `json:"has_voted"`
		VotedOption  *int `json:"voted_option"`
		HasDelegated bool `json:"has_delegated"`
		DelegateInfo *struct {
			UniqueID string `json:"unique_id"`
			Name     string `json:"name"`
		} `json:"delegate_info"`
		CanAct         bool `json:"can_act"`
		CooldownActive bool `json:"cooldown_active"`
	} `json:"user_status"`
	IsActive             bool     `json:"is_active"`
	TimeRemainingSeconds int64    `json:"time_remaining_seconds"`
	Options              []Option `json:"options"`
}

// Proposal fetches one proposal; vote_results is merged in by the server
// once available and stays null before that.
func (c *Client) Proposal(ctx context.Context, id string) (*Proposal, error) {
	var p Proposal
	if err := c.get(ctx, fmt.Sprintf("/v1/proposals/%s", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchStatus implements status.Fetcher.
func (c *Client) FetchStatus(ctx context.Context, proposalID string) (status.Snapshot, error) {
	var resp statusResponse
	if err := c.get(ctx, fmt.Sprintf("/v1/proposals/%s/voting-status", proposalID), &resp); err != nil {
		return status.Snapshot{}, err
	}
	snap := status.Snapshot{
		Known:          true,
		HasVoted:       resp.UserStatus.HasVoted,
		HasDelegated:   resp.UserStatus.HasDelegated,
		CanAct:         resp.UserStatus.CanAct,
		CooldownActive: resp.UserStatus.CooldownActive,
	}
	if resp.UserStatus.VotedOption != nil {
		snap.VotedOption = *resp.UserStatus.VotedOption
	}
	if resp.UserStatus.DelegateInfo != nil {
		snap.Delegate = status.Delegate{
			ID:   resp.UserStatus.DelegateInfo.UniqueID,
			Name: resp.UserStatus.DelegateInfo.Name,
		}
	}
	return snap, nil
}

// Suggestions returns the proposal's suggestions in display order.
func (c *Client) Suggestions(ctx context.Context, proposalID string) ([]suggestion.Suggestion, error) {
	var list []suggestion.Suggestion
	if err := c.get(ctx, fmt.Sprintf("/v1/proposals/%s/suggestions", proposalID), &list); err != nil {
		return nil, err
	}
	suggestion.Sort(list)
	return list, nil
}

// Categories returns the categories visible to the caller; used to derive
// suggestion-authorship eligibility.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var list []Category
	if err := c.get(ctx, "/v1/categories/organization", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CastVote(ctx context.Context, proposalID string, optionNumber int) error {
	return c.post(ctx, fmt.Sprintf("/v1/proposals/%s/vote", proposalID), map[string]any{
		"option_number": optionNumber,
	}, true)
}

func (c *Client) Delegate(ctx context.Context, proposalID, targetUser string) error {
	return c.post(ctx, fmt.Sprintf("/v1/proposals/%s/delegate", proposalID), map[string]any{
		"target_user": targetUser,
	}, false)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.asError(resp, true)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string, payload any, proposal404 bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.asError(resp, proposal404)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// asError maps a non-200 response onto the taxonomy. proposal404 decides how
// a 404 reads: missing proposal on fetch/vote paths, missing target on
// delegation.
func (c *Client) asError(resp *http.Response, proposal404 bool) error {
	var body struct {
		Err             string `json:"err"`
		CooldownSeconds int    `json:"cooldown_seconds"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &RateLimitedError{RetryAfter: time.Duration(body.CooldownSeconds) * time.Second}
	case http.StatusGone:
		return ErrPeriodEnded
	case http.StatusNotFound:
		if proposal404 {
			return ErrProposalNotFound
		}
		return ErrTargetNotFound
	case http.StatusBadRequest:
		reason := body.Err
		if reason == "" {
			reason = "rejected by server"
		}
		return &ActionNotAllowedError{Reason: reason}
	default:
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, body.Err)
	}
}
