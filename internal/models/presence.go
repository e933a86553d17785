package models

import "sort"

// OnlineSet holds the user IDs currently connected to the presence service
type OnlineSet map[string]struct{}

// NewOnlineSet builds a set from a snapshot of user IDs
func NewOnlineSet(userIDs ...string) OnlineSet {
	set := make(OnlineSet, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether userID is online
func (s OnlineSet) Has(userID string) bool {
	_, ok := s[userID]
	return ok
}

// IDs returns the online user IDs in ascending order
func (s OnlineSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy of the set
func (s OnlineSet) Clone() OnlineSet {
	out := make(OnlineSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
