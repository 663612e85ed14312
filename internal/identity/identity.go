// Package identity resolves the creator and organization a job runs on
// behalf of.
package identity

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/lru"
)

// ErrUnknownOrganization is returned when the organization does not exist.
var ErrUnknownOrganization = errors.New("unknown organization")

// ErrUnknownUser is returned when the user is not a member of the
// organization.
var ErrUnknownUser = errors.New("unknown user")

// Cluster mediates access to data stored in the registry database.
type Cluster interface {
	db.ClusterTransactioner
}

// Identity is a resolved creator and organization pair.
type Identity struct {
	User         string
	Organization string
}

// Resolver checks that job creators and organizations exist. Successful
// lookups are cached for a while, failures never are.
type Resolver struct {
	cluster Cluster
	clock   clock.Clock
	logger  log.Logger

	cache *lru.Cache[string, struct{}]
}

// New creates a Resolver with sane defaults
func New(cluster Cluster, options ...Option) *Resolver {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Resolver{
		cluster: cluster,
		clock:   opts.clock,
		logger:  opts.logger,
		cache:   lru.New[string, struct{}](opts.size, opts.ttl),
	}
}

// Resolve returns the identity of the given creator within the given
// organization. An empty organization means the default one, and an empty
// creator is anonymous and only requires the organization to exist.
func (r *Resolver) Resolve(creator, organization string) (Identity, error) {
	if organization == "" {
		organization = db.DefaultOrganization
	}
	identity := Identity{User: creator, Organization: organization}
	key := creator + "@" + organization

	now := r.clock.UTC()
	if _, ok := r.cache.Get(key, now); ok {
		return identity, nil
	}

	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		exists, err := tx.OrganizationExists(organization)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return ErrUnknownOrganization
		}
		if creator == "" {
			return nil
		}
		if exists, err = tx.UserExists(creator, organization); err != nil {
			return errors.WithStack(err)
		} else if !exists {
			return ErrUnknownUser
		}
		return nil
	})
	if err != nil {
		level.Debug(r.logger).Log("msg", "Unable to resolve identity", "user", creator, "organization", organization, "err", err)
		return Identity{}, err
	}

	r.cache.Add(key, struct{}{}, now)
	return identity, nil
}

// Forget drops every cached identity.
func (r *Resolver) Forget() {
	r.cache.Purge()
}
