package realtime

import (
	"encoding/json"
	"testing"

	"collab-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTypedPayloads(t *testing.T) {
	in, err := Decode([]byte(`{"event":"codeChange","data":{"file":"a.js","content":"","projectId":"p1"}}`))
	require.NoError(t, err)

	cc, ok := in.(*CodeChange)
	require.True(t, ok)
	assert.Equal(t, "a.js", cc.File)
	require.NotNil(t, cc.Content)
	assert.Equal(t, "", *cc.Content)
	assert.Equal(t, EventCodeChange, cc.Event())

	in, err = Decode([]byte(`{"event":"sendMessage","data":{"senderId":"a","recipientId":"b","content":"hi","type":"text"}}`))
	require.NoError(t, err)
	sm := in.(*SendMessage)
	assert.Equal(t, models.MessageKindText, sm.Type)
}

func TestDecodeEventWithoutData(t *testing.T) {
	in, err := Decode([]byte(`{"event":"userLogout"}`))
	require.NoError(t, err)
	assert.IsType(t, &UserLogout{}, in)

	in, err = Decode([]byte(`{"event":"userLogout","data":null}`))
	require.NoError(t, err)
	assert.IsType(t, &UserLogout{}, in)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"not json", `{"event":`, ErrMalformedFrame},
		{"no event", `{"data":{}}`, ErrMalformedFrame},
		{"numeric event", `{"event":5}`, ErrMalformedFrame},
		{"unknown event", `{"event":"dropTables","data":{}}`, ErrUnknownEvent},
		{"outbound event name", `{"event":"codeUpdate","data":{}}`, ErrUnknownEvent},
		{"missing content", `{"event":"codeChange","data":{"file":"a.js","projectId":"p1"}}`, ErrInvalidPayload},
		{"missing project", `{"event":"joinProject","data":{"userId":"u1"}}`, ErrInvalidPayload},
		{"empty user", `{"event":"userAuthenticated","data":{"userId":""}}`, ErrInvalidPayload},
		{"data not object", `{"event":"joinChat","data":"bob"}`, ErrInvalidPayload},
		{"wrong field type", `{"event":"typing","data":{"recipientId":"b","isTyping":"yes"}}`, ErrInvalidPayload},
		{"bad message type", `{"event":"sendMessage","data":{"senderId":"a","recipientId":"b","type":"video"}}`, ErrInvalidPayload},
		{"missing sender", `{"event":"sendMessage","data":{"recipientId":"b","content":"x"}}`, ErrInvalidPayload},
		{"missing folder", `{"event":"createFolder","data":{"projectId":"p1"}}`, ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEveryInboundEventHasFactory(t *testing.T) {
	for _, name := range GetAllInboundEvents() {
		assert.True(t, name.IsInbound(), name)
	}
	assert.False(t, EventFilesUpdate.IsInbound())
}

func TestEncodeEnvelope(t *testing.T) {
	b, err := Encode(NewEvent(EventFileCreated, FileCreated{Path: "main.js", Content: "// hi"}))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "fileCreated", got["event"])
	assert.Equal(t, map[string]any{"path": "main.js", "content": "// hi"}, got["data"])
}

func TestEncodeEmptySnapshotIsArray(t *testing.T) {
	b, err := Encode(NewEvent(EventFilesUpdate, FilesUpdate{Files: models.Snapshot(nil)}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"filesUpdate","data":{"files":[]}}`, string(b))
}
