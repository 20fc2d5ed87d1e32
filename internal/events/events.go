// Package events decodes raw contract logs into typed event records for
// the launchpad, farm and leaderboard contracts.
package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event is a decoded, typed contract event. Raw carries the source log so
// handlers can record block number and transaction hash.
type Event interface {
	EventName() string
	RawLog() types.Log
}

// TokenSummoned is emitted when a new launchpad token is created.
type TokenSummoned struct {
	Token   common.Address
	Creator common.Address
	Name    string
	Symbol  string
	Raw     types.Log
}

func (e *TokenSummoned) EventName() string { return "TokenSummoned" }
func (e *TokenSummoned) RawLog() types.Log { return e.Raw }

// TokenBought is emitted on a bonding curve buy.
type TokenBought struct {
	Token     common.Address
	Buyer     common.Address
	MonadIn   *big.Int
	TokensOut *big.Int
	NewPrice  *big.Int
	Raw       types.Log
}

func (e *TokenBought) EventName() string { return "TokenBought" }
func (e *TokenBought) RawLog() types.Log { return e.Raw }

// TokenSold is emitted on a bonding curve sell.
type TokenSold struct {
	Token    common.Address
	Seller   common.Address
	TokensIn *big.Int
	MonadOut *big.Int
	NewPrice *big.Int
	Raw      types.Log
}

func (e *TokenSold) EventName() string { return "TokenSold" }
func (e *TokenSold) RawLog() types.Log { return e.Raw }

// TokenGraduated is emitted exactly once per token when it moves from the
// bonding curve to a fixed liquidity pool.
type TokenGraduated struct {
	Token           common.Address
	Pair            common.Address
	LiquidityMonad  *big.Int
	LiquidityTokens *big.Int
	Raw             types.Log
}

func (e *TokenGraduated) EventName() string { return "TokenGraduated" }
func (e *TokenGraduated) RawLog() types.Log { return e.Raw }

// SellLockPurchased is emitted when a holder buys a sell lock day.
type SellLockPurchased struct {
	Token common.Address
	Buyer common.Address
	Day   *big.Int
	Cost  *big.Int
	Raw   types.Log
}

func (e *SellLockPurchased) EventName() string { return "SellLockPurchased" }
func (e *SellLockPurchased) RawLog() types.Log { return e.Raw }

// SellLockUnlocked is emitted when a sell lock is released early.
type SellLockUnlocked struct {
	Token  common.Address
	Holder common.Address
	Cost   *big.Int
	Raw    types.Log
}

func (e *SellLockUnlocked) EventName() string { return "SellLockUnlocked" }
func (e *SellLockUnlocked) RawLog() types.Log { return e.Raw }

// Deposit is emitted when a user stakes into a farm pool.
type Deposit struct {
	User   common.Address
	Pid    *big.Int
	Amount *big.Int
	Raw    types.Log
}

func (e *Deposit) EventName() string { return "Deposit" }
func (e *Deposit) RawLog() types.Log { return e.Raw }

// Withdraw is emitted when a user unstakes from a farm pool.
type Withdraw struct {
	User   common.Address
	Pid    *big.Int
	Amount *big.Int
	Raw    types.Log
}

func (e *Withdraw) EventName() string { return "Withdraw" }
func (e *Withdraw) RawLog() types.Log { return e.Raw }

// EmergencyWithdraw is emitted when a user force-exits a farm pool,
// forfeiting rewards.
type EmergencyWithdraw struct {
	User   common.Address
	Pid    *big.Int
	Amount *big.Int
	Raw    types.Log
}

func (e *EmergencyWithdraw) EventName() string { return "EmergencyWithdraw" }
func (e *EmergencyWithdraw) RawLog() types.Log { return e.Raw }

// Harvest is emitted when a user claims accrued rewards.
type Harvest struct {
	User   common.Address
	Pid    *big.Int
	Amount *big.Int
	Raw    types.Log
}

func (e *Harvest) EventName() string { return "Harvest" }
func (e *Harvest) RawLog() types.Log { return e.Raw }

// BurnForRank is emitted when tokens are burned to raise a token's weekly
// leaderboard position.
type BurnForRank struct {
	Token      common.Address
	Burner     common.Address
	Amount     *big.Int
	WeekNumber *big.Int
	Raw        types.Log
}

func (e *BurnForRank) EventName() string { return "BurnForRank" }
func (e *BurnForRank) RawLog() types.Log { return e.Raw }
