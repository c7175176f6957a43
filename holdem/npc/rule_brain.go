package npc

import (
	"math/rand"

	"github.com/htvnhe/fhe-poker/holdem"
)

// RuleBrain 朴素对手策略：约 10% 加注（付得起时）、20% 弃牌（面对下注时）、
// 其余跟注/过牌。只为让 demo 能玩，不做任何牌力判断。
type RuleBrain struct {
	rng *rand.Rand

	RaiseProb float64
	FoldProb  float64
}

func NewRuleBrain(rng *rand.Rand) *RuleBrain {
	return &RuleBrain{
		rng:       rng,
		RaiseProb: 0.10,
		FoldProb:  0.20,
	}
}

func (b *RuleBrain) Name() string { return "rule" }

func (b *RuleBrain) Decide(view GameView) Decision {
	canRaise := false
	canCall := false
	canCheck := false
	for _, a := range view.LegalActions {
		switch a {
		case holdem.ActionRaise:
			canRaise = true
		case holdem.ActionCall:
			canCall = true
		case holdem.ActionCheck:
			canCheck = true
		}
	}

	r := b.rng.Float64()
	facingBet := view.CurrentBet > view.MyBet

	switch {
	case r < b.RaiseProb && canRaise:
		return Decision{Action: holdem.ActionRaise}
	case r < b.RaiseProb+b.FoldProb && facingBet:
		return Decision{Action: holdem.ActionFold}
	case canCall:
		return Decision{Action: holdem.ActionCall}
	case canCheck:
		return Decision{Action: holdem.ActionCheck}
	default:
		return Decision{Action: holdem.ActionFold}
	}
}
