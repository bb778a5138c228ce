package repositories

import "fmt"

// Key prefix for all Mafia Madness data
const keyPrefix = "mafia"

func userKey(id string) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

func gameKey(id string) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// userIDsKey is the SET of every user ID
func userIDsKey() string {
	return fmt.Sprintf("%s:users", keyPrefix)
}

// gameIDsKey is the SET of every game ID
func gameIDsKey() string {
	return fmt.Sprintf("%s:games", keyPrefix)
}

func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}
