package session

import (
	"encoding/json"
	"fmt"
)

// User is the only identity data kept in session state. It is trusted as
// stored: deserializing never consults the patient store.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Serialize encodes u for the session store without transforming it.
func Serialize(u User) ([]byte, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("session: serialize user: %w", err)
	}
	return b, nil
}

// Deserialize is the inverse of Serialize.
func Deserialize(data []byte) (User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("session: deserialize user: %w", err)
	}
	return u, nil
}
