package events

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrUnknownEvent is returned when a log's topic0 matches no event in the
// decoder's signature table.
var ErrUnknownEvent = errors.New("unknown event signature")

// Decoder maps raw logs to typed events for a single contract ABI.
// A decoding failure affects only the offending log; callers log the error
// and move on to the next log.
type Decoder struct {
	abi abi.ABI
}

// NewDecoder creates a decoder over the given event signature table.
func NewDecoder(contractABI abi.ABI) *Decoder {
	return &Decoder{abi: contractABI}
}

// Topics returns the topic0 hashes of every event in the signature table,
// suitable for a log filter query.
func (d *Decoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.abi.Events))
	for _, ev := range d.abi.Events {
		topics = append(topics, ev.ID)
	}
	return topics
}

// Decode converts a raw log into a typed event record.
func (d *Decoder) Decode(lg types.Log) (Event, error) {
	if len(lg.Topics) == 0 {
		return nil, fmt.Errorf("log at block %d has no topics", lg.BlockNumber)
	}

	ev, err := d.abi.EventByID(lg.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: topic0 %s", ErrUnknownEvent, lg.Topics[0].Hex())
	}

	var out Event
	switch ev.Name {
	case "TokenSummoned":
		out = &TokenSummoned{Raw: lg}
	case "TokenBought":
		out = &TokenBought{Raw: lg}
	case "TokenSold":
		out = &TokenSold{Raw: lg}
	case "TokenGraduated":
		out = &TokenGraduated{Raw: lg}
	case "SellLockPurchased":
		out = &SellLockPurchased{Raw: lg}
	case "SellLockUnlocked":
		out = &SellLockUnlocked{Raw: lg}
	case "Deposit":
		out = &Deposit{Raw: lg}
	case "Withdraw":
		out = &Withdraw{Raw: lg}
	case "EmergencyWithdraw":
		out = &EmergencyWithdraw{Raw: lg}
	case "Harvest":
		out = &Harvest{Raw: lg}
	case "BurnForRank":
		out = &BurnForRank{Raw: lg}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
	}

	if err := d.unpack(out, ev, lg); err != nil {
		return nil, fmt.Errorf("failed to decode %s at block %d, tx %s: %w",
			ev.Name, lg.BlockNumber, lg.TxHash.Hex(), err)
	}

	return out, nil
}

// unpack fills the non-indexed fields from the data blob and the indexed
// fields from the topic list, the way abigen bindings do.
func (d *Decoder) unpack(out Event, ev *abi.Event, lg types.Log) error {
	if nonIndexed := ev.Inputs.NonIndexed(); len(nonIndexed) > 0 {
		// an empty data blob would leave every non-indexed field nil
		if len(lg.Data) == 0 {
			return fmt.Errorf("empty data, expected %d non-indexed fields", len(nonIndexed))
		}
		if err := d.abi.UnpackIntoInterface(out, ev.Name, lg.Data); err != nil {
			return err
		}
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}

	if len(lg.Topics) != len(indexed)+1 {
		return fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(lg.Topics))
	}

	return abi.ParseTopics(out, indexed, lg.Topics[1:])
}
