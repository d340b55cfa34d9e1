// Package events holds the event subjects published by the board service.
package events

import "strings"

// Event types for boards
const (
	BoardChanged = "board.changed"
)

// BoardChangedWildcard matches board changes of every owner.
const BoardChangedWildcard = BoardChanged + ".*"

// BuildBoardChangedSubject creates the change subject for one owner. Dots in
// the owner id would split the token, so they are replaced.
func BuildBoardChangedSubject(ownerID string) string {
	return BoardChanged + "." + strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(ownerID)
}

// BoardChangedData is the payload of a board.changed event.
type BoardChangedData struct {
	OwnerID string `json:"owner_id"`
	BoardID string `json:"board_id"`
	Command string `json:"command"`
}

// Map converts the payload to event data.
func (d BoardChangedData) Map() map[string]interface{} {
	return map[string]interface{}{
		"owner_id": d.OwnerID,
		"board_id": d.BoardID,
		"command":  d.Command,
	}
}

// ParseBoardChanged reads a payload back from event data. Missing fields are
// left empty.
func ParseBoardChanged(data map[string]interface{}) BoardChangedData {
	str := func(k string) string {
		s, _ := data[k].(string)
		return s
	}
	return BoardChangedData{OwnerID: str("owner_id"), BoardID: str("board_id"), Command: str("command")}
}
