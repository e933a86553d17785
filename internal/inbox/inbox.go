package inbox

import (
	"sync"

	"inboxrank/server/internal/models"
)

// Inbox recomputes the ranked conversation list whenever one of its inputs changes
type Inbox struct {
	mu            sync.Mutex
	currentUserID string
	conversations []models.Conversation
	online        models.OnlineSet
	ranked        []models.InboxEntry
	onChange      func([]models.InboxEntry)
}

// New creates an Inbox for currentUserID. onChange, if not nil, receives every
// new ranking; it is called with the Inbox lock held and must not call back into it.
func New(currentUserID string, onChange func([]models.InboxEntry)) *Inbox {
	i := &Inbox{
		currentUserID: currentUserID,
		online:        models.OnlineSet{},
		onChange:      onChange,
	}
	i.recompute()
	return i
}

// SetConversations replaces the conversation list
func (i *Inbox) SetConversations(conversations []models.Conversation) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.conversations = conversations
	i.recompute()
}

// SetOnline replaces the online set
func (i *Inbox) SetOnline(online models.OnlineSet) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.online = online.Clone()
	i.recompute()
}

// SetCurrentUser switches the acting user
func (i *Inbox) SetCurrentUser(userID string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.currentUserID = userID
	i.recompute()
}

// Ranked returns the latest ranking
func (i *Inbox) Ranked() []models.InboxEntry {
	i.mu.Lock()
	defer i.mu.Unlock()

	return append([]models.InboxEntry(nil), i.ranked...)
}

func (i *Inbox) recompute() {
	i.ranked = Rank(i.conversations, i.online, i.currentUserID)
	if i.onChange != nil {
		i.onChange(append([]models.InboxEntry(nil), i.ranked...))
	}
}
