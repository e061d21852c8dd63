package models

import "encoding/json"

// TodoPayload is the self-describing content stored inside a todo row's
// todo column. Its ID is the identifier clients use in URLs and is
// independent of the row's surrogate key.
type TodoPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Todo is a row in the todos table: a surrogate row id, the owning user,
// and the encoded payload.
type Todo struct {
	RowID   int64
	UserID  string
	Payload TodoPayload
}

// EncodePayload serializes a payload for storage in the todo column.
func EncodePayload(p TodoPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodePayload parses a stored todo column value.
func DecodePayload(raw string) (TodoPayload, error) {
	var p TodoPayload
	err := json.Unmarshal([]byte(raw), &p)
	return p, err
}
