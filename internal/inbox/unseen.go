package inbox

import "inboxrank/server/internal/models"

// UnseenCount returns how many messages of conv userID has not seen yet.
// A conversation without messages has nothing unseen.
func UnseenCount(conv *models.Conversation, userID string) int {
	if conv == nil {
		return 0
	}

	count := 0
	for i := range conv.Messages {
		if !conv.Messages[i].SeenByUser(userID) {
			count++
		}
	}
	return count
}
