package models

import "time"

// Relationship is one directional edge, stored under its owner.
type Relationship struct {
	OwnerID         string    `json:"-"`
	PeerID          string    `json:"uid"`
	PeerDisplayName string    `json:"display_name"`
	CreatedAt       time.Time `json:"timestamp"`
}

// Friendship is the unit committed by CreateFriendship: both edges and the
// channel they share.
type Friendship struct {
	Forward Relationship
	Reverse Relationship
	Channel Channel
}

type FriendSummary struct {
	Relationship
	Online      bool       `json:"online"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	Status      string     `json:"status"`
	ChannelID   ChannelID  `json:"channel_id"`
	LastMessage *Message   `json:"last_message,omitempty"`
}
