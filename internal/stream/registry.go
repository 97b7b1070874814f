package stream

import (
	"github.com/quillfeed/quillfeed/internal/model"
	"github.com/quillfeed/quillfeed/internal/rankstore"
	"github.com/quillfeed/quillfeed/internal/repository"
)

// Category keys for the shipped feed set.
const (
	HomeKey      = "home"
	LocalKey     = "local"
	FederatedKey = "federated"
)

// DefaultMaxLength bounds bulk feed population per category.
const DefaultMaxLength = 200

// Set is an explicit, ordered collection of stream categories. It is
// passed to whoever needs it rather than living in package state, so
// tests can build isolated sets.
type Set struct {
	streams []*Stream
	byKey   map[string]*Stream
}

func NewSet(streams ...*Stream) *Set {
	s := &Set{byKey: make(map[string]*Stream, len(streams))}
	for _, st := range streams {
		s.streams = append(s.streams, st)
		s.byKey[st.Key()] = st
	}
	return s
}

func (s *Set) Get(key string) (*Stream, bool) {
	st, ok := s.byKey[key]
	return st, ok
}

// All returns the categories in registration order.
func (s *Set) All() []*Stream { return s.streams }

func (s *Set) Keys() []string {
	keys := make([]string, len(s.streams))
	for i, st := range s.streams {
		keys[i] = st.Key()
	}
	return keys
}

// DefaultPolicies is the shipped home/local/federated category set.
func DefaultPolicies(maxLength int) []Policy {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return []Policy{
		{
			Key:               HomeKey,
			MaxLength:         maxLength,
			Levels:            []string{model.PrivacyPublic, model.PrivacyUnlisted, model.PrivacyFollowers},
			FollowingOnly:     true,
			FollowersAudience: true,
		},
		{
			Key:              LocalKey,
			MaxLength:        maxLength,
			Levels:           []string{model.PrivacyPublic},
			PublicOnly:       true,
			LocalAuthorsOnly: true,
		},
		{
			Key:        FederatedKey,
			MaxLength:  maxLength,
			Levels:     []string{model.PrivacyPublic},
			PublicOnly: true,
		},
	}
}

// NewDefaultSet wires the shipped categories against the given stores.
func NewDefaultSet(ranks *rankstore.Store, users repository.UserRepository, statuses repository.StatusRepository, maxLength int) *Set {
	policies := DefaultPolicies(maxLength)
	streams := make([]*Stream, len(policies))
	for i, p := range policies {
		streams[i] = New(p, ranks, users, statuses)
	}
	return NewSet(streams...)
}
