package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentDecodeRejectsMalformed(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	cases := map[string]Document{
		"unknown type":    {ID: "m1", ChannelID: "a_b", SenderID: "a", Timestamp: ts, Type: "video", Text: "x"},
		"text without it": {ID: "m1", ChannelID: "a_b", SenderID: "a", Timestamp: ts, Type: KindText},
		"image no url":    {ID: "m1", ChannelID: "a_b", SenderID: "a", Timestamp: ts, Type: KindImage},
		"no sender":       {ID: "m1", ChannelID: "a_b", Timestamp: ts, Type: KindText, Text: "hi"},
		"no timestamp":    {ID: "m1", ChannelID: "a_b", SenderID: "a", Type: KindText, Text: "hi"},
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := doc.Decode()
			assert.Error(t, err)
		})
	}
}

func TestMessageJSONShape(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	msg := Message{ID: "m1", ChannelID: "a_b", SenderID: "a", Timestamp: ts, Content: Media{URL: "/files/x.png"}}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m1","channel_id":"a_b","sender_id":"a","timestamp":"2024-05-01T10:00:00Z","type":"image","media_url":"/files/x.png"}`, string(raw))

	var back Message
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, Media{URL: "/files/x.png"}, back.Content)
}

func TestProfileUpdateApplyMerges(t *testing.T) {
	seen := time.Now()
	name := "neo"
	u := &User{ID: "u1", DisplayName: "old", Email: "neo@example.com"}

	ProfileUpdate{DisplayName: &name, LastSeen: &seen}.Apply(u)

	assert.Equal(t, "neo", u.DisplayName)
	assert.Equal(t, "neo@example.com", u.Email)
	require.NotNil(t, u.LastSeen)
	assert.True(t, u.LastSeen.Equal(seen))
	assert.Nil(t, u.Location)
}
