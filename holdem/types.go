package holdem

// InvalidSeat 表示“没有可行动座位”
const InvalidSeat = -1

// Phase 游戏阶段
type Phase byte

const (
	PhaseWaiting  Phase = 0
	PhasePreflop  Phase = 1
	PhaseFlop     Phase = 2
	PhaseTurn     Phase = 3
	PhaseRiver    Phase = 4
	PhaseShowdown Phase = 5
	PhaseFinished Phase = 6
)

var PhaseDictionary = map[Phase]string{
	PhaseWaiting:  "waiting",
	PhasePreflop:  "preflop",
	PhaseFlop:     "flop",
	PhaseTurn:     "turn",
	PhaseRiver:    "river",
	PhaseShowdown: "showdown",
	PhaseFinished: "finished",
}

func (p Phase) String() string {
	if s, ok := PhaseDictionary[p]; ok {
		return s
	}
	return "unknown"
}

// Betting 阶段才接受玩家动作
func (p Phase) Betting() bool {
	return p >= PhasePreflop && p <= PhaseRiver
}

// ActionType 动作类型：0-NONE 1-FOLD 2-CHECK 3-CALL 4-RAISE
//
// 动作集是封闭的：新增动作必须同时更新 Act 的 switch（编译期穷举）。
type ActionType byte

const (
	ActionNone  ActionType = 0
	ActionFold  ActionType = 1
	ActionCheck ActionType = 2
	ActionCall  ActionType = 3
	ActionRaise ActionType = 4
)

var ActionTypeDictionary = map[ActionType]string{
	ActionNone:  "NONE",
	ActionFold:  "FOLD",
	ActionCheck: "CHECK",
	ActionCall:  "CALL",
	ActionRaise: "RAISE",
}

func (a ActionType) String() string {
	if s, ok := ActionTypeDictionary[a]; ok {
		return s
	}
	return "UNKNOWN"
}

// ShowdownMode 摊牌裁决方式
type ShowdownMode byte

const (
	// ShowdownEval 标准 7 选 5 最佳牌型裁决
	ShowdownEval ShowdownMode = 0
	// ShowdownRandom 在未弃牌玩家中随机选出赢家（demo 桌专用）
	ShowdownRandom ShowdownMode = 1
)

// 手牌常量定义
const (
	HandHighCard      byte = iota + 1 // 高牌
	HandOnePair                       // 一对
	HandTwoPair                       // 两对
	HandThreeOfKind                   // 三条
	HandStraight                      // 顺子
	HandFlush                         // 同花
	HandFullHouse                     // 葫芦
	HandFourOfKind                    // 四条
	HandStraightFlush                 // 同花顺
	HandRoyalFlush                    // 皇家同花顺
)
