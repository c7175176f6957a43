package holdem

import "fmt"

type Config struct {
	// Table
	MaxPlayers int
	MinPlayers int

	// Blinds
	SmallBlind int64
	BigBlind   int64

	// StartingStack refills busted seats when a finished table restarts.
	StartingStack int64

	// RaiseIncrement is the fixed raise delta (0 => 2x BigBlind).
	RaiseIncrement int64

	// Showdown resolution mode (eval by default, random for demo tables).
	Showdown ShowdownMode

	// RNG seed (0 => time-based)
	Seed int64
}

func (c Config) validate() error {
	if c.MaxPlayers <= 0 {
		return fmt.Errorf("MaxPlayers must be > 0")
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("MinPlayers must be >= 2")
	}
	if c.MinPlayers > c.MaxPlayers {
		return fmt.Errorf("MinPlayers must be <= MaxPlayers")
	}
	if c.SmallBlind <= 0 || c.BigBlind <= 0 || c.SmallBlind > c.BigBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", c.SmallBlind, c.BigBlind)
	}
	if c.StartingStack < c.BigBlind {
		return fmt.Errorf("StartingStack must cover the big blind")
	}
	if c.RaiseIncrement < 0 {
		return fmt.Errorf("RaiseIncrement must be >= 0")
	}
	return nil
}

func (c Config) raiseIncrement() int64 {
	if c.RaiseIncrement > 0 {
		return c.RaiseIncrement
	}
	return 2 * c.BigBlind
}
