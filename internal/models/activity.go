package models

// TimestampLayout is the wire format for activity timestamps: ISO-8601 with
// microsecond precision, e.g. "2016-06-30T15:42:52.663910".
const TimestampLayout = "2006-01-02T15:04:05.000000"

// ActivityType identifies the kind of change an activity records.
type ActivityType string

const (
	ActivityTypeNewPackage     ActivityType = "new package"
	ActivityTypeChangedPackage ActivityType = "changed package"
	ActivityTypeDeletedPackage ActivityType = "deleted package"
	ActivityTypeNewGroup       ActivityType = "new group"
	ActivityTypeChangedGroup   ActivityType = "changed group"
	ActivityTypeDeletedGroup   ActivityType = "deleted group"
	ActivityTypeNewOrg         ActivityType = "new organization"
	ActivityTypeChangedOrg     ActivityType = "changed organization"
	ActivityTypeDeletedOrg     ActivityType = "deleted organization"
	ActivityTypeNewUser        ActivityType = "new user"
	ActivityTypeChangedUser    ActivityType = "changed user"
)

// Activity represents one recorded change event in the platform's activity
// log. It is immutable once fetched; the feed pipeline only reads it.
type Activity struct {
	ID           string         `json:"id"`
	ActivityType string         `json:"activity_type"`
	UserID       string         `json:"user_id"`
	ObjectID     string         `json:"object_id"`
	RevisionID   string         `json:"revision_id"`
	Timestamp    string         `json:"timestamp"`
	Data         map[string]any `json:"data,omitempty"`
	IsNew        bool           `json:"is_new"`
}

// ActivityDetail is a finer-grained sub-record of an Activity, present when
// an activity affects individual sub-entities (resources, tags, extras).
type ActivityDetail struct {
	ID           string         `json:"id"`
	ActivityID   string         `json:"activity_id"`
	ActivityType string         `json:"activity_type"`
	ObjectType   string         `json:"object_type"`
	Data         map[string]any `json:"data,omitempty"`
}
