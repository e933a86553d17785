package inbox

import (
	"sort"
	"strings"

	"inboxrank/server/internal/models"
)

const (
	// maxLabelNames caps how many online members a group label names
	maxLabelNames = 2

	onlineMarker = " ... online"
)

// Path returns the navigation target of a conversation
func Path(conversationID string) string {
	return "/inbox/" + conversationID
}

// IsLive reports whether any participant other than currentUserID is online
func IsLive(conv *models.Conversation, online models.OnlineSet, currentUserID string) bool {
	for _, p := range conv.Participants {
		if p.UserID != currentUserID && online.Has(p.UserID) {
			return true
		}
	}
	return false
}

// onlineOthers returns the online participants other than currentUserID, in participant order
func onlineOthers(conv *models.Conversation, online models.OnlineSet, currentUserID string) []models.Participant {
	var out []models.Participant
	for _, p := range conv.Participants {
		if p.UserID != currentUserID && online.Has(p.UserID) {
			out = append(out, p)
		}
	}
	return out
}

// PresenceLabel builds the "A, B ... online" line shown for a live group.
// Only the first two online members are named. Returns "" when nobody else is online.
func PresenceLabel(conv *models.Conversation, online models.OnlineSet, currentUserID string) string {
	members := onlineOthers(conv, online, currentUserID)
	if len(members) == 0 {
		return ""
	}
	if len(members) > maxLabelNames {
		members = members[:maxLabelNames]
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.User.Name)
	}
	return strings.Join(names, ", ") + onlineMarker
}

// title is the group name, or the other participant's name for private conversations
func title(conv *models.Conversation, currentUserID string) string {
	if conv.IsGroup {
		return conv.DisplayName()
	}
	for _, p := range conv.Participants {
		if p.UserID != currentUserID {
			return p.User.Name
		}
	}
	return ""
}

// Entry annotates a single conversation for display
func Entry(conv models.Conversation, online models.OnlineSet, currentUserID string) models.InboxEntry {
	entry := models.InboxEntry{
		Conversation: conv,
		UnseenCount:  UnseenCount(&conv, currentUserID),
		Live:         IsLive(&conv, online, currentUserID),
		Title:        title(&conv, currentUserID),
		Preview:      conv.LastMessage,
		Href:         Path(conv.ID),
	}

	if conv.IsGroup {
		if label := PresenceLabel(&conv, online, currentUserID); label != "" {
			entry.Preview = label
		}
	}

	return entry
}

// Rank orders conversations for the inbox: conversations with an online
// participant first, then most recently updated. Equal keys keep their input order.
func Rank(conversations []models.Conversation, online models.OnlineSet, currentUserID string) []models.InboxEntry {
	entries := make([]models.InboxEntry, 0, len(conversations))
	for _, conv := range conversations {
		entries = append(entries, Entry(conv, online, currentUserID))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Live != b.Live {
			return a.Live
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})

	return entries
}
