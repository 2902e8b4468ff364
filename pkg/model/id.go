package model

import "github.com/openboards/boardkit/internal/rand"

// IDType is the single-rune prefix of a client-assigned entity id. The
// prefix makes ids self-describing in logs and wire traffic.
type IDType byte

const (
	IDTypeNone    IDType = '7'
	IDTypeTeam    IDType = 't'
	IDTypeBoard   IDType = 'b'
	IDTypeCard    IDType = 'c'
	IDTypeView    IDType = 'v'
	IDTypeSession IDType = 's'
	IDTypeUser    IDType = 'u'
	IDTypeToken   IDType = 'k'
	IDTypeBlock   IDType = 'a'
)

const idSuffixLength = 26

// NewID returns a fresh entity id with the given type prefix.
func NewID(t IDType) string {
	return string(t) + rand.String(idSuffixLength)
}

func blockTypeToIDType(t BlockType) IDType {
	switch t {
	case TypeBoard:
		return IDTypeBoard
	case TypeCard:
		return IDTypeCard
	case TypeView:
		return IDTypeView
	default:
		return IDTypeBlock
	}
}
