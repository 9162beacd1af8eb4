package model

import (
	"errors"
	"time"
)

// Subscription is a directed edge: subscriber follows channel. Both sides
// are user ids; a channel is just a user viewed as a subscription target.
type Subscription struct {
	SubscriberID int64     `db:"subscriber_id" json:"subscriber_id"`
	ChannelID    int64     `db:"channel_id" json:"channel_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ChannelProfile is the viewer-relative public projection of a channel.
// Password and refresh token are never part of it.
type ChannelProfile struct {
	FullName                  string  `json:"full_name"`
	Username                  string  `json:"username"`
	Email                     string  `json:"email"`
	AvatarURL                 string  `json:"avatar_url"`
	CoverImageURL             *string `json:"cover_image_url"`
	SubscribersCount          int     `json:"subscribers_count"`
	ChannelsSubscribedToCount int     `json:"channels_subscribed_to_count"`
	IsSubscribed              bool    `json:"is_subscribed"`
}

// ToggleSubscriptionResponse reports the resulting state after a toggle.
type ToggleSubscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}

var (
	// ErrCannotSubscribeSelf is returned when a user subscribes to themselves
	ErrCannotSubscribeSelf = errors.New("cannot subscribe to your own channel")

	// ErrUsernameRequired is returned when a channel lookup gets a blank username
	ErrUsernameRequired = errors.New("username is required")
)
