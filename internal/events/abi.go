package events

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Event-only ABI fragments for the three monitored contracts. The indexer
// never calls contract methods, so function entries are omitted.

const launchpadABIJSON = `[
  {"type":"event","name":"TokenSummoned","inputs":[
    {"name":"token","type":"address","indexed":true},
    {"name":"creator","type":"address","indexed":true},
    {"name":"name","type":"string","indexed":false},
    {"name":"symbol","type":"string","indexed":false}]},
  {"type":"event","name":"TokenBought","inputs":[
    {"name":"token","type":"address","indexed":true},
    {"name":"buyer","type":"address","indexed":true},
    {"name":"monadIn","type":"uint256","indexed":false},
    {"name":"tokensOut","type":"uint256","indexed":false},
    {"name":"newPrice","type":"uint256","indexed":false}]},
  {"type":"event","name":"TokenSold","inputs":[
    {"name":"token","type":"address","indexed":true},
    {"name":"seller","type":"address","indexed":true},
    {"name":"tokensIn","type":"uint256","indexed":false},
    {"name":"monadOut","type":"uint256","indexed":false},
    {"name":"newPrice","type":"uint256","indexed":false}]},
  {"type":"event","name":"TokenGraduated","inputs":[
    {"name":"token","type":"address","indexed":true},
    {"name":"pair","type":"address","indexed":false},
    {"name":"liquidityMonad","type":"uint256","indexed":false},
    {"name":"liquidityTokens","type":"uint256","indexed":false}]},
  {"type":"event","name":"SellLockPurchased","inputs":[
    {"name":"token","type":"address","indexed":true},
    {"name":"buyer","type":"address","indexed":true},
    {"name":"day","type":"uint256","indexed":false},
    {"name":"cost","type":"uint256","indexed":false}]},
  {"type":"event","name":"SellLockUnlocked","inputs":[
    {"name":"token","type":"address","indexed":true},
    {"name":"holder","type":"address","indexed":true},
    {"name":"cost","type":"uint256","indexed":false}]}
]`

const farmABIJSON = `[
  {"type":"event","name":"Deposit","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"pid","type":"uint256","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"Withdraw","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"pid","type":"uint256","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"EmergencyWithdraw","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"pid","type":"uint256","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"Harvest","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"pid","type":"uint256","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}]}
]`

const leaderboardABIJSON = `[
  {"type":"event","name":"BurnForRank","inputs":[
    {"name":"token","type":"address","indexed":true},
    {"name":"burner","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"weekNumber","type":"uint256","indexed":false}]}
]`

var (
	// LaunchpadABI covers the bonding curve launchpad contract.
	LaunchpadABI = mustABI(launchpadABIJSON)

	// FarmABI covers the staking farm contract.
	FarmABI = mustABI(farmABIJSON)

	// LeaderboardABI covers the burn leaderboard contract.
	LeaderboardABI = mustABI(leaderboardABIJSON)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
