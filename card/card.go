package card

import (
	"fmt"
	"strings"
)

// Card 牌枚举
//
// 编码规则:
// - 取值范围 [1,52]
// - 花色: (card-1)/13 (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - 点数: (card-1)%13 (0:A, 1:2 .. 9:T, 10:J, 11:Q, 12:K)
type Card uint8

const (
	CardInvalid Card = 0
	CardMin     Card = 1
	CardMax     Card = 52
)

func (c Card) Valid() bool {
	return c >= CardMin && c <= CardMax
}

// Rank 点数 1-13 (A=1, K=13)
func (c Card) Rank() byte {
	if !c.Valid() {
		return 0
	}
	return byte((c-1)%13) + 1
}

// Suit 花色 (0:Spades, 1:Hearts, 2:Clubs, 3:Diamonds)
func (c Card) Suit() Suit {
	return Suit((c - 1) / 13)
}

func (c Card) IsAce() bool {
	return c.Rank() == 1
}

// HandRealVal 返回用于比较大小的点数:
// - A 视为 14
// - 其它为原始点数
func (c Card) HandRealVal() int {
	r := int(c.Rank())
	if r == 1 {
		return 14
	}
	return r
}

func (c Card) String() string {
	if !c.Valid() {
		return "Invalid"
	}
	return fmt.Sprintf("%s%s", c.Suit(), rankString(c.Rank()))
}

func rankString(rank byte) string {
	switch rank {
	case 1:
		return "A"
	case 10:
		return "T"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprintf("%d", rank)
	}
}

// Make 按花色和点数组牌 (rank 1-13)
func Make(suit Suit, rank byte) (Card, error) {
	if suit > Diamond || rank < 1 || rank > 13 {
		return CardInvalid, fmt.Errorf("invalid suit/rank: %d/%d", suit, rank)
	}
	return Card(byte(suit)*13 + rank), nil
}

// Parse 将字符串 (如 "As", "Td", "10h") 转换为 Card
func Parse(cardStr string) (Card, error) {
	if len(cardStr) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %s", cardStr)
	}

	var suit Suit
	switch cardStr[len(cardStr)-1] {
	case 's', 'S':
		suit = Spade
	case 'h', 'H':
		suit = Heart
	case 'c', 'C':
		suit = Club
	case 'd', 'D':
		suit = Diamond
	default:
		return CardInvalid, fmt.Errorf("invalid suit: %c", cardStr[len(cardStr)-1])
	}

	var rank byte
	switch strings.ToUpper(cardStr[:len(cardStr)-1]) {
	case "A":
		rank = 1
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = cardStr[0] - '0'
	case "T", "10":
		rank = 10
	case "J":
		rank = 11
	case "Q":
		rank = 12
	case "K":
		rank = 13
	default:
		return CardInvalid, fmt.Errorf("invalid rank: %s", cardStr[:len(cardStr)-1])
	}

	return Make(suit, rank)
}
