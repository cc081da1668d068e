package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"forum-chat/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func disk(sender, recipient domain.UserID, senderName, body string, at time.Time) DiskMessage {
	return DiskMessage{
		ID:          uuid.New(),
		SenderID:    sender,
		SenderName:  senderName,
		RecipientID: recipient,
		Body:        body,
		At:          at,
	}
}

func Test_StoreMessage_And_GetHistory_Ascending(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC()
	messages := []DiskMessage{
		disk(1, 2, "alice", "first", at),
		disk(1, 2, "alice", "second", at.Add(1*time.Minute)),
		disk(1, 2, "alice", "third", at.Add(2*time.Minute)),
	}

	// Given messages stored newest first
	for i := len(messages) - 1; i >= 0; i-- {
		req.NoError(repository.StoreMessage(messages[i]))
	}

	// Then history comes back oldest first
	fetched, err := repository.GetHistory(1, 2)
	req.NoError(err)
	req.Len(fetched, len(messages))
	req.Equal("first", fetched[0].Body)
	req.Equal("second", fetched[1].Body)
	req.Equal("third", fetched[2].Body)
}

func Test_GetHistory_Merges_Both_Directions(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC()
	req.NoError(repository.StoreMessage(disk(1, 2, "alice", "ping", at)))
	req.NoError(repository.StoreMessage(disk(2, 1, "bob", "pong", at.Add(time.Second))))

	// The pair order in the query must not matter
	forward, err := repository.GetHistory(1, 2)
	req.NoError(err)
	backward, err := repository.GetHistory(2, 1)
	req.NoError(err)

	req.Equal(forward, backward)
	req.Len(forward, 2)
	req.Equal("ping", forward[0].Body)
	req.Equal("pong", forward[1].Body)
}

func Test_GetHistory_Isolates_Conversations(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC()
	req.NoError(repository.StoreMessage(disk(1, 2, "alice", "for bob", at)))
	req.NoError(repository.StoreMessage(disk(1, 3, "alice", "for clara", at)))
	req.NoError(repository.StoreMessage(disk(3, 2, "clara", "for bob too", at)))

	fetched, err := repository.GetHistory(1, 2)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for bob", fetched[0].Body)
}

func Test_GetHistory_Empty_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	fetched, err := repository.GetHistory(10, 20)
	req.NoError(err)
	req.Empty(fetched)
}

func Test_Same_Timestamp_Messages_Are_All_Kept(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	// Given two messages landing on the exact same nanosecond
	at := time.Now().UTC()
	req.NoError(repository.StoreMessage(disk(1, 2, "alice", "a", at)))
	req.NoError(repository.StoreMessage(disk(1, 2, "alice", "b", at)))

	// Then the uuid in the key keeps them from overwriting each other
	fetched, err := repository.GetHistory(1, 2)
	req.NoError(err)
	req.Len(fetched, 2)
}
