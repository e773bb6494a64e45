package entity

import "strings"

// Collection names used in the document store.
const (
	EventsCollection    = "events"
	UsersCollection     = "users"
	FavoritesCollection = "favorites"
)

// EventPath is the document path of an event.
func EventPath(id string) string {
	return JoinPath(EventsCollection, id)
}

// UserPath is the document path of a user profile.
func UserPath(uid string) string {
	return JoinPath(UsersCollection, uid)
}

// FavoritesPath is the collection path of a user's favorites.
func FavoritesPath(uid string) string {
	return JoinPath(UsersCollection, uid, FavoritesCollection)
}

// FavoritePath is the document path of a single favorite mark.
func FavoritePath(uid, eventID string) string {
	return JoinPath(FavoritesPath(uid), eventID)
}

// JoinPath joins path segments with "/".
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}
