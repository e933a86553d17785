package inbox

import (
	"testing"
	"time"

	"inboxrank/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboxRecomputesOnEveryInput(t *testing.T) {
	var published [][]models.InboxEntry
	ib := New("A", func(entries []models.InboxEntry) {
		published = append(published, entries)
	})
	require.Len(t, published, 1)
	assert.Empty(t, published[0])

	c1 := conversation("1", base, "A", "B")
	c1.Messages = []models.Message{{SeenBy: []string{"B"}}}
	c2 := conversation("2", base.Add(time.Minute), "A", "C")

	ib.SetConversations([]models.Conversation{c1, c2})
	assert.Equal(t, []string{"2", "1"}, ids(ib.Ranked()))
	assert.Equal(t, 1, ib.Ranked()[1].UnseenCount)

	ib.SetOnline(models.NewOnlineSet("B"))
	assert.Equal(t, []string{"1", "2"}, ids(ib.Ranked()))

	// Snapshot replaces, it does not merge
	ib.SetOnline(models.NewOnlineSet("C"))
	assert.Equal(t, []string{"2", "1"}, ids(ib.Ranked()))

	// Acting as B: c1 unseen count changes, C still online
	ib.SetCurrentUser("B")
	assert.Equal(t, 0, ib.Ranked()[1].UnseenCount)

	assert.Len(t, published, 5)
}

func TestInboxCopiesOnlineSet(t *testing.T) {
	ib := New("A", nil)
	ib.SetConversations([]models.Conversation{conversation("1", base, "A", "B")})

	online := models.NewOnlineSet("B")
	ib.SetOnline(online)
	delete(online, "B")

	assert.True(t, ib.Ranked()[0].Live)
}
