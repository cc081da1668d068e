package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"forum-chat/domain"
	"forum-chat/domain/event"
)

func Test_Presence_RoundTrip(t *testing.T) {
	req := require.New(t)
	snapshot := event.PresenceSnapshot{Users: []domain.OnlineUser{
		{UserID: 1, DisplayName: "alice"},
		{UserID: 2, DisplayName: "bob"},
	}}

	data, err := EncodeEvent(snapshot)
	req.NoError(err)

	decoded, err := DecodeServerEvent(data)
	req.NoError(err)
	req.Equal(snapshot, decoded)
}

func Test_Message_Echo_Carries_RecipientID(t *testing.T) {
	req := require.New(t)
	message := domain.Message{SenderID: 1, SenderName: "alice", RecipientID: 2, Body: "hello"}

	// The echo copy exposes the recipient id on the wire
	data, err := EncodeEvent(event.MessageDelivered{Message: message, Echo: true})
	req.NoError(err)

	var envelope Envelope
	req.NoError(json.Unmarshal(data, &envelope))
	req.Equal(TypeMessage, envelope.Type)

	var payload MessagePayload
	req.NoError(json.Unmarshal(envelope.Payload, &payload))
	req.NotNil(payload.RecipientID)
	req.Equal(int64(2), *payload.RecipientID)

	decoded, err := DecodeServerEvent(data)
	req.NoError(err)
	delivered, ok := decoded.(event.MessageDelivered)
	req.True(ok)
	req.True(delivered.Echo)
	req.Equal(domain.UserID(2), delivered.Message.RecipientID)
}

func Test_Message_Plain_Copy_Omits_RecipientID(t *testing.T) {
	req := require.New(t)
	message := domain.Message{SenderID: 1, SenderName: "alice", RecipientID: 2, Body: "hello"}

	// The recipient's copy never names the recipient
	data, err := EncodeEvent(event.MessageDelivered{Message: message})
	req.NoError(err)

	var envelope Envelope
	req.NoError(json.Unmarshal(data, &envelope))
	var payload MessagePayload
	req.NoError(json.Unmarshal(envelope.Payload, &payload))
	req.Nil(payload.RecipientID)

	decoded, err := DecodeServerEvent(data)
	req.NoError(err)
	delivered, ok := decoded.(event.MessageDelivered)
	req.True(ok)
	req.False(delivered.Echo)
}

func Test_RecipientOffline_RoundTrip(t *testing.T) {
	req := require.New(t)

	data, err := EncodeEvent(event.RecipientOffline{RecipientID: 9})
	req.NoError(err)

	decoded, err := DecodeServerEvent(data)
	req.NoError(err)
	req.Equal(event.RecipientOffline{RecipientID: 9}, decoded)
}

func Test_ProtocolError_RoundTrip(t *testing.T) {
	req := require.New(t)

	data, err := EncodeEvent(event.ProtocolError{Code: CodeUnregisteredSender})
	req.NoError(err)

	decoded, err := DecodeServerEvent(data)
	req.NoError(err)
	req.Equal(event.ProtocolError{Code: CodeUnregisteredSender}, decoded)
}

func Test_DecodeServerEvent_UnknownType(t *testing.T) {
	req := require.New(t)

	_, err := DecodeServerEvent([]byte(`{"type":"telemetry","payload":{}}`))
	req.Error(err)
}

func Test_EncodeClientEvent(t *testing.T) {
	req := require.New(t)

	data, err := EncodeClientEvent(TypeSendMessage, SendMessagePayload{RecipientID: 2, Body: "hi"})
	req.NoError(err)

	var envelope Envelope
	req.NoError(json.Unmarshal(data, &envelope))
	req.Equal(TypeSendMessage, envelope.Type)

	var payload SendMessagePayload
	req.NoError(json.Unmarshal(envelope.Payload, &payload))
	req.Equal(int64(2), payload.RecipientID)
	req.Equal("hi", payload.Body)
}
