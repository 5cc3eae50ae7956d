package entity

import "strings"

const (
	DefaultPlayer1Name  = "Player 1"
	DefaultPlayer2Name  = "Player 2"
	DefaultComputerName = "Computer"
)

type Player struct {
	Name       string `json:"name"`
	Mark       Mark   `json:"mark"`
	Score      int    `json:"score"`
	IsComputer bool   `json:"is_computer,omitempty"`
}

// NewPlayers - player 1 always plays X, player 2 always plays O.
func NewPlayers(name1, name2 string, player2IsComputer bool) [2]Player {
	name1, name2 = strings.TrimSpace(name1), strings.TrimSpace(name2)

	if name1 == "" {
		name1 = DefaultPlayer1Name
	}

	if name2 == "" {
		name2 = DefaultPlayer2Name
		if player2IsComputer {
			name2 = DefaultComputerName
		}
	}

	return [2]Player{
		{Name: name1, Mark: PlayerX},
		{Name: name2, Mark: PlayerO, IsComputer: player2IsComputer},
	}
}

// Label - scoreboard label, e.g. "Alice (X)".
func (that Player) Label() string {
	return that.Name + " (" + string(that.Mark) + ")"
}
