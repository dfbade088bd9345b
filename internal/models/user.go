package models

import "time"

// User represents a platform account as returned by the user-lookup service.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FollowedObjectType enumerates the kinds of entities a user can follow.
// Followed entities feed the user's dashboard activity stream.
type FollowedObjectType string

const (
	FollowDataset FollowedObjectType = "dataset"
	FollowUser    FollowedObjectType = "user"
	FollowGroup   FollowedObjectType = "group"
)

// Follow records that a user follows another entity.
type Follow struct {
	FollowerID string             `json:"follower_id"`
	ObjectType FollowedObjectType `json:"object_type"`
	ObjectID   string             `json:"object_id"`
	CreatedAt  time.Time          `json:"created_at"`
}
