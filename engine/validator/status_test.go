package validator

import (
	"testing"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/domain"
)

func TestEvaluateStatus(t *testing.T) {
	chain := []string{catalog.PowerSupply, catalog.MCB, catalog.DistributionBoard}
	withBulb := append(append([]string(nil), chain...), catalog.Bulb)
	live := domain.CorrectConnection{WireType: domain.WireLive}
	neutral := domain.CorrectConnection{WireType: domain.WireNeutral}
	earth := domain.CorrectConnection{WireType: domain.WireEarth}

	tests := []struct {
		name      string
		placed    []string
		missing   []domain.CorrectConnection
		incorrect int
		closed    bool
		msg       string
	}{
		{"nothing placed", nil, nil, 0, false, MsgNoLoad},
		{"no load beats missing", chain, []domain.CorrectConnection{live}, 3, false, MsgNoLoad},
		{"no power chain", []string{catalog.PowerSupply, catalog.Bulb}, nil, 0, false, MsgNoPowerChain},
		{"missing both", withBulb, []domain.CorrectConnection{live, neutral}, 0, false, MsgMissingBoth},
		{"missing neutral", withBulb, []domain.CorrectConnection{neutral, earth}, 0, false, MsgMissingNeutral},
		{"missing live", withBulb, []domain.CorrectConnection{earth, live}, 0, false, MsgMissingLive},
		{"missing other", withBulb, []domain.CorrectConnection{earth, earth}, 0, false, "Open circuit: missing 2 connection(s)."},
		{"missing beats incorrect", withBulb, []domain.CorrectConnection{neutral}, 2, false, MsgMissingNeutral},
		{"incorrect", withBulb, nil, 1, false, MsgFixIncorrect},
		{"closed", withBulb, nil, 0, true, MsgClosedAndWorking},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := EvaluateStatus(tt.placed, tt.missing, tt.incorrect)
			if st.Message != tt.msg {
				t.Fatalf("message %q, want %q", st.Message, tt.msg)
			}
			if st.IsClosed != tt.closed || st.IsWorking != tt.closed {
				t.Fatalf("closed=%v working=%v, want %v", st.IsClosed, st.IsWorking, tt.closed)
			}
		})
	}
}
