// Package authz derives a user's admin, owner and banned classification from stored grants and bans.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sebastian05-bossu/1337loader/internal/models"
	"github.com/sebastian05-bossu/1337loader/internal/store"
	log "github.com/sirupsen/logrus"
)

// ErrResolutionUnavailable indicates the grant or ban lookup failed.
var ErrResolutionUnavailable = errors.New("authz: resolution unavailable")

// State is the resolved authorization classification of a user.
type State struct {
	IsAdmin  bool `json:"is_admin"`
	IsOwner  bool `json:"is_owner"`
	IsBanned bool `json:"is_banned"`
}

// Restrictive is the state callers must assume when resolution fails.
// It grants nothing elevated and does not mark the user banned.
func Restrictive() State {
	return State{}
}

// Elevated reports whether the state grants admin access. A ban always wins.
func (s State) Elevated() bool {
	return s.IsAdmin && !s.IsBanned
}

// OwnerAccess reports whether the state grants owner access. A ban always wins.
func (s State) OwnerAccess() bool {
	return s.IsOwner && !s.IsBanned
}

// Lookup is the subset of the record store the resolver reads.
type Lookup interface {
	GetAdminGrant(ctx context.Context, userID string) (models.AdminUser, error)
	GetActiveBan(ctx context.Context, userID string) (models.UserBan, error)
}

// Resolver computes State from the record store on every call.
type Resolver struct {
	lookup Lookup
}

// NewResolver constructs a Resolver.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns the current classification of userID. On failure it returns
// Restrictive() together with an error wrapping ErrResolutionUnavailable.
func (r *Resolver) Resolve(ctx context.Context, userID string) (State, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Restrictive(), fmt.Errorf("%w: empty user id", ErrResolutionUnavailable)
	}

	var state State

	grant, errGrant := r.lookup.GetAdminGrant(ctx, userID)
	switch {
	case errGrant == nil:
		state.IsAdmin = true
		state.IsOwner = grant.IsOwner
	case errors.Is(errGrant, store.ErrNotFound):
	default:
		log.WithError(errGrant).WithField("user_id", userID).Warn("authz: admin grant lookup failed")
		return Restrictive(), fmt.Errorf("%w: admin grant: %v", ErrResolutionUnavailable, errGrant)
	}

	_, errBan := r.lookup.GetActiveBan(ctx, userID)
	switch {
	case errBan == nil:
		state.IsBanned = true
	case errors.Is(errBan, store.ErrNotFound):
	default:
		log.WithError(errBan).WithField("user_id", userID).Warn("authz: ban lookup failed")
		return Restrictive(), fmt.Errorf("%w: ban: %v", ErrResolutionUnavailable, errBan)
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"is_admin":  state.IsAdmin,
		"is_owner":  state.IsOwner,
		"is_banned": state.IsBanned,
	}).Debug("authz: resolved")
	return state, nil
}
