package holdem

import (
	"sort"

	"github.com/htvnhe/fhe-poker/card"
)

type bestHandResult struct {
	Score     uint32 // Larger is stronger.
	HandType  byte
	BestIndex [5]int // Best 5 cards indices in original 7 cards.
}

// EvalBestOf7 evaluates the best 5-card hand from 7 cards.
func EvalBestOf7(cards card.CardList) *bestHandResult {
	if len(cards) != 7 {
		return nil
	}

	var best *bestHandResult
	idx := [5]int{}

	for a := 0; a < 3; a++ {
		for b := a + 1; b < 4; b++ {
			for c := b + 1; c < 5; c++ {
				for d := c + 1; d < 6; d++ {
					for e := d + 1; e < 7; e++ {
						idx[0], idx[1], idx[2], idx[3], idx[4] = a, b, c, d, e
						score, handType := eval5(cards[a], cards[b], cards[c], cards[d], cards[e])
						if best == nil || score > best.Score {
							best = &bestHandResult{
								Score:     score,
								HandType:  handType,
								BestIndex: idx,
							}
						}
					}
				}
			}
		}
	}
	return best
}

// 牌型类别，大者为强。与 HandType 常量区分：这里只参与打分。
const (
	catHighCard      = 1
	catOnePair       = 2
	catTwoPair       = 3
	catThreeOfKind   = 4
	catStraight      = 5
	catFlush         = 6
	catFullHouse     = 7
	catFourOfKind    = 8
	catStraightFlush = 9
)

// eval5 给 5 张牌打分：score = category<<20 | 5 个 4-bit tiebreak（从高到低）。
func eval5(a, b, c, d, e card.Card) (score uint32, handType byte) {
	cards := [5]card.Card{a, b, c, d, e}

	flush := true
	suit0 := cards[0].Suit()
	ranks := make([]int, 0, 5) // A 记为 14
	for _, cc := range cards {
		if cc.Suit() != suit0 {
			flush = false
		}
		ranks = append(ranks, cc.HandRealVal())
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	straightHigh := straightHighCard(ranks)

	// rank -> count
	counts := map[int]int{}
	for _, r := range ranks {
		counts[r]++
	}
	// group by count desc, then rank desc
	type group struct{ rank, count int }
	groups := make([]group, 0, 5)
	for r, n := range counts {
		groups = append(groups, group{r, n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	var cat int
	tiebreak := make([]int, 0, 5)

	switch {
	case flush && straightHigh > 0:
		cat = catStraightFlush
		tiebreak = append(tiebreak, straightHigh)
	case groups[0].count == 4:
		cat = catFourOfKind
		tiebreak = append(tiebreak, groups[0].rank, groups[1].rank)
	case groups[0].count == 3 && groups[1].count == 2:
		cat = catFullHouse
		tiebreak = append(tiebreak, groups[0].rank, groups[1].rank)
	case flush:
		cat = catFlush
		tiebreak = append(tiebreak, ranks...)
	case straightHigh > 0:
		cat = catStraight
		tiebreak = append(tiebreak, straightHigh)
	case groups[0].count == 3:
		cat = catThreeOfKind
		tiebreak = append(tiebreak, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2 && groups[1].count == 2:
		cat = catTwoPair
		tiebreak = append(tiebreak, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2:
		cat = catOnePair
		tiebreak = append(tiebreak, groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank)
	default:
		cat = catHighCard
		tiebreak = append(tiebreak, ranks...)
	}

	score = uint32(cat) << 20
	for i := 0; i < 5; i++ {
		t := 0
		if i < len(tiebreak) {
			t = tiebreak[i]
		}
		score |= uint32(t) << uint(16-4*i)
	}
	return score, catToHandType(cat, straightHigh)
}

// straightHighCard ranks 必须降序且记 A=14；返回顺子最高张（A-5 轮子返回 5），非顺子返回 0。
func straightHighCard(ranks []int) int {
	distinct := ranks[0] != ranks[1] && ranks[1] != ranks[2] &&
		ranks[2] != ranks[3] && ranks[3] != ranks[4]
	if !distinct {
		return 0
	}
	if ranks[0]-ranks[4] == 4 {
		return ranks[0]
	}
	// wheel: A 5 4 3 2
	if ranks[0] == 14 && ranks[1] == 5 && ranks[4] == 2 {
		return 5
	}
	return 0
}

func catToHandType(cat int, straightHigh int) byte {
	switch cat {
	case catStraightFlush:
		if straightHigh == 14 {
			return HandRoyalFlush
		}
		return HandStraightFlush
	case catFourOfKind:
		return HandFourOfKind
	case catFullHouse:
		return HandFullHouse
	case catFlush:
		return HandFlush
	case catStraight:
		return HandStraight
	case catThreeOfKind:
		return HandThreeOfKind
	case catTwoPair:
		return HandTwoPair
	case catOnePair:
		return HandOnePair
	default:
		return HandHighCard
	}
}
