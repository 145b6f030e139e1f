package models

import "time"

// ChannelID names the message log of one pair of users.
type ChannelID string

type Channel struct {
	ID           ChannelID `json:"id"`
	Participants [2]string `json:"participants"`
	CreatedAt    time.Time `json:"created"`
}

func (c *Channel) HasParticipant(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}
