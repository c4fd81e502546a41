package validator

import (
	"fmt"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/domain"
	"github.com/WessleyAI/wessley-circuits/engine/topology"
)

// CircuitStatus is the open/closed verdict shown to the user.
type CircuitStatus struct {
	IsClosed  bool   `json:"isClosed"`
	IsWorking bool   `json:"isWorking"`
	Message   string `json:"message"`
}

// Status messages.
const (
	MsgNoLoad           = "No load in the circuit: add a fan, bulb, tube light or socket."
	MsgNoPowerChain     = "Missing power chain: the circuit needs a power supply, an MCB and a distribution board."
	MsgMissingBoth      = "Open circuit: missing both live and neutral connections."
	MsgMissingNeutral   = "Open circuit: missing neutral return path."
	MsgMissingLive      = "Open circuit: missing live connection."
	MsgFixIncorrect     = "Fix the incorrect connections to complete the circuit."
	MsgClosedAndWorking = "Circuit is closed and working."
)

// EvaluateStatus derives the circuit verdict from the placed component ids
// and the validator's missing and incorrect sets. The first matching rule
// wins: no load, incomplete power chain, missing connections, incorrect
// connections, otherwise closed.
func EvaluateStatus(placed []string, missing []domain.CorrectConnection, incorrect int) CircuitStatus {
	sel := topology.NewSelection(placed...)

	if !sel.HasAny(catalog.LoadIDs...) {
		return CircuitStatus{Message: MsgNoLoad}
	}
	if !sel.HasAll(catalog.PowerChainIDs...) {
		return CircuitStatus{Message: MsgNoPowerChain}
	}
	if len(missing) > 0 {
		var live, neutral bool
		for _, c := range missing {
			switch c.WireType {
			case domain.WireLive:
				live = true
			case domain.WireNeutral:
				neutral = true
			}
		}
		msg := fmt.Sprintf("Open circuit: missing %d connection(s).", len(missing))
		switch {
		case live && neutral:
			msg = MsgMissingBoth
		case neutral:
			msg = MsgMissingNeutral
		case live:
			msg = MsgMissingLive
		}
		return CircuitStatus{Message: msg}
	}
	if incorrect > 0 {
		return CircuitStatus{Message: MsgFixIncorrect}
	}
	return CircuitStatus{IsClosed: true, IsWorking: true, Message: MsgClosedAndWorking}
}
