//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"forum-chat/domain"
)

// KeyPrefix is the namespace of the private message log inside Badger.
const KeyPrefix = "msg:"

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetHistory(a, b domain.UserID) ([]DiskMessage, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type DiskMessage struct {
	ID          uuid.UUID     `json:"id"`
	SenderID    domain.UserID `json:"sender_id"`
	SenderName  string        `json:"sender_name"`
	RecipientID domain.UserID `json:"recipient_id"`
	Body        string        `json:"body"`
	At          time.Time     `json:"at"`
}

// historyKey builds "msg:{lo}:{hi}:{timestamp_padded}:{uuid}".
//  1. The conversation pair is normalized (lo <= hi), so both directions
//     of the same exchange land under one prefix.
//  2. The 19-digit zero-padded UnixNano makes lexicographical order equal
//     chronological order inside the prefix.
//  3. The UUID acts as a collision disconnector if two messages arrive
//     at the same nanosecond.
func historyKey(message DiskMessage) []byte {
	conv := domain.ConversationOf(message.SenderID, message.RecipientID)
	return []byte(fmt.Sprintf("%s%d:%d:%019d:%s",
		KeyPrefix,
		conv.Lo,
		conv.Hi,
		message.At.UnixNano(),
		message.ID,
	))
}

// StoreMessage persists one relayed message in BadgerDB.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(historyKey(message), bytes)
	})
}

// GetHistory retrieves the full exchange between two users using a
// prefix scan. Thanks to the padded timestamp in the key, messages come
// back oldest first without any post-sort.
func (m MessageRepository) GetHistory(a, b domain.UserID) ([]DiskMessage, error) {
	conv := domain.ConversationOf(a, b)
	prefix := []byte(fmt.Sprintf("%s%d:%d:", KeyPrefix, conv.Lo, conv.Hi))

	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]DiskMessage, 0, len(raw))
	for _, bytes := range raw {
		var message DiskMessage
		if err = json.Unmarshal(bytes, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// ToDiskMessage converts a routed domain message for storage.
func ToDiskMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:          message.ID,
		SenderID:    message.SenderID,
		SenderName:  message.SenderName,
		RecipientID: message.RecipientID,
		Body:        message.Body,
		At:          message.At,
	}
}

// FromDiskMessages converts stored records back into domain messages.
func FromDiskMessages(messages []DiskMessage) []domain.Message {
	return lo.Map(messages, func(item DiskMessage, _ int) domain.Message {
		return domain.Message{
			ID:          item.ID,
			SenderID:    item.SenderID,
			SenderName:  item.SenderName,
			RecipientID: item.RecipientID,
			Body:        item.Body,
			At:          item.At,
		}
	})
}
