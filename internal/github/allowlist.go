package github

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/acedatacloud/dashsnap/internal/cache"
	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

const (
	// maxAllowListUsers caps pagination on the membership endpoints.
	maxAllowListUsers = 5000

	defaultAllowListTTL = 6 * time.Hour
)

// AllowList is a case-insensitive set of GitHub logins
type AllowList struct {
	logins map[string]struct{}
}

// NewAllowList builds an allow list from raw logins
func NewAllowList(logins []string) *AllowList {
	set := make(map[string]struct{}, len(logins))
	for _, login := range logins {
		login = strings.ToLower(strings.TrimSpace(login))
		if login == "" {
			continue
		}
		set[login] = struct{}{}
	}
	return &AllowList{logins: set}
}

// Contains reports whether login belongs to the allow list
func (a *AllowList) Contains(login string) bool {
	_, ok := a.logins[strings.ToLower(strings.TrimSpace(login))]
	return ok
}

// Len returns the number of logins in the set
func (a *AllowList) Len() int {
	return len(a.logins)
}

// Logins returns the logins in sorted order
func (a *AllowList) Logins() []string {
	out := make([]string, 0, len(a.logins))
	for login := range a.logins {
		out = append(out, login)
	}
	sort.Strings(out)
	return out
}

type memberRecord struct {
	Login string `json:"login"`
}

func (c *Client) listLogins(ctx context.Context, url string) ([]string, error) {
	raw, err := c.getList(ctx, url, maxAllowListUsers)
	if err != nil {
		return nil, err
	}

	logins := make([]string, 0, len(raw))
	for _, msg := range raw {
		var rec memberRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			continue
		}
		if rec.Login != "" {
			logins = append(logins, rec.Login)
		}
	}
	return logins, nil
}

// ListOrgMembers returns the logins of the organization's members
func (c *Client) ListOrgMembers(ctx context.Context, org string) ([]string, error) {
	return c.listLogins(ctx, fmt.Sprintf("%s/orgs/%s/members", c.apiRoot, org))
}

// ListOutsideCollaborators returns the logins of the organization's
// outside collaborators
func (c *Client) ListOutsideCollaborators(ctx context.Context, org string) ([]string, error) {
	return c.listLogins(ctx, fmt.Sprintf("%s/orgs/%s/outside_collaborators", c.apiRoot, org))
}

// allowListEnvelope is the cached form of a fetched allow list
type allowListEnvelope struct {
	Logins    []string  `json:"logins"`
	FetchedAt time.Time `json:"fetched_at"`
}

// AllowListSource resolves the author allow list for an organization,
// consulting the cache before hitting the API.
type AllowListSource struct {
	client   *Client
	cache    domain.Cache
	ttl      time.Duration
	failOpen bool
	logger   *utils.Logger
}

// AllowListOptions contains options for creating an AllowListSource
type AllowListOptions struct {
	Client *Client
	// Cache is optional; when nil every Resolve call hits the API.
	Cache domain.Cache
	TTL   time.Duration
	// FailOpen keeps the run going on membership fetch errors, with
	// whatever partial set was collected.
	FailOpen bool
	Logger   *utils.Logger
}

// NewAllowListSource creates a new allow-list source
func NewAllowListSource(opts AllowListOptions) *AllowListSource {
	if opts.TTL <= 0 {
		opts.TTL = defaultAllowListTTL
	}
	return &AllowListSource{
		client:   opts.Client,
		cache:    opts.Cache,
		ttl:      opts.TTL,
		failOpen: opts.FailOpen,
		logger:   opts.Logger,
	}
}

// Resolve returns the allow list for org, served from cache when fresh
func (s *AllowListSource) Resolve(ctx context.Context, org string) (*AllowList, error) {
	key := cache.AllowListKey(org)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var env allowListEnvelope
			if err := json.Unmarshal(data, &env); err == nil {
				if s.logger != nil {
					s.logger.Debug().
						Str("org", org).
						Int("logins", len(env.Logins)).
						Time("fetched_at", env.FetchedAt).
						Msg("Allow list served from cache")
				}
				return NewAllowList(env.Logins), nil
			}
		}
	}

	list, err := s.fetch(ctx, org)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		env := allowListEnvelope{Logins: list.Logins(), FetchedAt: time.Now().UTC()}
		if data, err := json.Marshal(env); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil && s.logger != nil {
				s.logger.Warn().Err(err).Str("org", org).Msg("Failed to cache allow list")
			}
		}
	}

	return list, nil
}

func (s *AllowListSource) fetch(ctx context.Context, org string) (*AllowList, error) {
	var logins []string

	members, err := s.client.ListOrgMembers(ctx, org)
	if err != nil {
		if !s.failOpen {
			return nil, fmt.Errorf("%w: list members of %s: %w", domain.ErrConnectivity, org, err)
		}
		if s.logger != nil {
			s.logger.Warn().Err(err).Str("org", org).Msg("Failed to list org members, continuing with partial allow list")
		}
	}
	logins = append(logins, members...)

	outside, err := s.client.ListOutsideCollaborators(ctx, org)
	if err != nil {
		if !s.failOpen {
			return nil, fmt.Errorf("%w: list outside collaborators of %s: %w", domain.ErrConnectivity, org, err)
		}
		if s.logger != nil {
			s.logger.Warn().Err(err).Str("org", org).Msg("Failed to list outside collaborators, continuing with partial allow list")
		}
	}
	logins = append(logins, outside...)

	if s.logger != nil {
		s.logger.Debug().Str("org", org).Int("allowed_total", len(logins)).Msg("Allow list fetched")
	}
	return NewAllowList(logins), nil
}
