package topology

import (
	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/domain"
)

// Guard is an extra predicate a rule must satisfy beyond its required ids.
type Guard func(Selection) bool

// Rule fires its connection templates when every required component is
// selected and the optional guard holds.
type Rule struct {
	Name        string
	Requires    []string
	When        Guard
	Connections []domain.CorrectConnection
}

// Applies reports whether the rule fires for sel.
func (r Rule) Applies(sel Selection) bool {
	if !sel.HasAll(r.Requires...) {
		return false
	}
	return r.When == nil || r.When(sel)
}

// absent is a guard that holds when none of ids are selected.
func absent(ids ...string) Guard {
	return func(sel Selection) bool { return !sel.HasAny(ids...) }
}

// switchedLive holds when a load takes its live feed through the switch:
// a switch is present and no regulator sits in the chain.
func switchedLive(sel Selection) bool {
	return sel.Has(catalog.Switch) && !sel.Has(catalog.Regulator)
}

func boardLive(sel Selection) bool { return !switchedLive(sel) }

func conn(src, srcT, dst, dstT string, w domain.WireType, desc string) domain.CorrectConnection {
	return domain.CorrectConnection{
		SourceComponent: src,
		SourceTerminal:  srcT,
		TargetComponent: dst,
		TargetTerminal:  dstT,
		WireType:        w,
		Description:     desc,
	}
}

// socketRule wires a socket straight from the board, independent of any switch.
func socketRule(id, prefix, name string) Rule {
	return Rule{
		Name:     "board-" + id,
		Requires: []string{catalog.DistributionBoard, id},
		Connections: []domain.CorrectConnection{
			conn(catalog.DistributionBoard, "db-out-l", id, prefix+"-l", domain.WireLive, "Board live to "+name),
			conn(catalog.DistributionBoard, "db-out-n", id, prefix+"-n", domain.WireNeutral, "Board neutral to "+name+" (return path)"),
			conn(catalog.DistributionBoard, "db-out-e", id, prefix+"-e", domain.WireEarth, "Board earth to "+name),
		},
	}
}

// lampRules wires a bulb or tube: live through the switch when there is no
// regulator, otherwise straight from the board, plus the board return path.
func lampRules(id, prefix, name string, earthed bool) []Rule {
	ret := []domain.CorrectConnection{
		conn(catalog.DistributionBoard, "db-out-n", id, prefix+"-n", domain.WireNeutral, "Board neutral to "+name+" (return path)"),
	}
	if earthed {
		ret = append(ret, conn(catalog.DistributionBoard, "db-out-e", id, prefix+"-e", domain.WireEarth, "Board earth to "+name))
	}
	return []Rule{
		{
			Name:     "switch-" + id,
			Requires: []string{catalog.Switch, id},
			When:     switchedLive,
			Connections: []domain.CorrectConnection{
				conn(catalog.Switch, "sw-out", id, prefix+"-l", domain.WireLive, "Switched live to "+name),
			},
		},
		{
			Name:     "board-" + id + "-live",
			Requires: []string{catalog.DistributionBoard, id},
			When:     boardLive,
			Connections: []domain.CorrectConnection{
				conn(catalog.DistributionBoard, "db-out-l", id, prefix+"-l", domain.WireLive, "Board live to "+name),
			},
		},
		{
			Name:        "board-" + id + "-return",
			Requires:    []string{catalog.DistributionBoard, id},
			Connections: ret,
		},
	}
}

// DefaultRules returns the household wiring rule table. Output order of the
// engine follows this table.
func DefaultRules() []Rule {
	const (
		ps  = catalog.PowerSupply
		mcb = catalog.MCB
		db  = catalog.DistributionBoard
		sw  = catalog.Switch
		reg = catalog.Regulator
		fan = catalog.Fan
		bat = catalog.Battery
		inv = catalog.Inverter
	)

	rules := []Rule{
		{
			Name:     "supply-mcb",
			Requires: []string{ps, mcb},
			Connections: []domain.CorrectConnection{
				conn(ps, "supply-l", mcb, "mcb-in-l", domain.WireLive, "Supply live to MCB input"),
				conn(ps, "supply-n", mcb, "mcb-in-n", domain.WireNeutral, "Supply neutral to MCB input"),
			},
		},
		{
			Name:     "mcb-board",
			Requires: []string{mcb, db},
			Connections: []domain.CorrectConnection{
				conn(mcb, "mcb-out-l", db, "db-in-l", domain.WireLive, "MCB live to distribution board"),
				conn(mcb, "mcb-out-n", db, "db-in-n", domain.WireNeutral, "MCB neutral to distribution board"),
			},
		},
		{
			Name:     "supply-board-earth",
			Requires: []string{ps, db},
			Connections: []domain.CorrectConnection{
				conn(ps, "supply-e", db, "db-in-e", domain.WireEarth, "Supply earth to distribution board"),
			},
		},
		{
			Name:     "board-switch",
			Requires: []string{db, sw},
			Connections: []domain.CorrectConnection{
				conn(db, "db-out-l", sw, "sw-in", domain.WireLive, "Board live to switch"),
			},
		},
		{
			Name:     "switch-regulator",
			Requires: []string{sw, reg},
			Connections: []domain.CorrectConnection{
				conn(sw, "sw-out", reg, "reg-in", domain.WireLive, "Switched live to regulator"),
			},
		},
		{
			Name:     "regulator-fan",
			Requires: []string{reg, fan},
			Connections: []domain.CorrectConnection{
				conn(reg, "reg-out", fan, "fan-l", domain.WireLive, "Regulated live to fan"),
			},
		},
		{
			Name:     "switch-fan",
			Requires: []string{sw, fan},
			When:     absent(reg),
			Connections: []domain.CorrectConnection{
				conn(sw, "sw-out", fan, "fan-l", domain.WireLive, "Switched live to fan"),
			},
		},
		{
			Name:     "board-fan-live",
			Requires: []string{db, fan},
			When:     absent(reg, sw),
			Connections: []domain.CorrectConnection{
				conn(db, "db-out-l", fan, "fan-l", domain.WireLive, "Board live to fan"),
			},
		},
		{
			Name:     "board-fan-return",
			Requires: []string{db, fan},
			Connections: []domain.CorrectConnection{
				conn(db, "db-out-n", fan, "fan-n", domain.WireNeutral, "Board neutral to fan (return path)"),
				conn(db, "db-out-e", fan, "fan-e", domain.WireEarth, "Board earth to fan"),
			},
		},
	}

	rules = append(rules, lampRules(catalog.Bulb, "bulb", "bulb", false)...)
	rules = append(rules, lampRules(catalog.TubeLight, "tube", "tube light", true)...)
	rules = append(rules,
		socketRule(catalog.Socket5A, "s5", "5A socket"),
		socketRule(catalog.Socket15A, "s15", "15A socket"),
		Rule{
			Name:     "battery-inverter",
			Requires: []string{bat, inv},
			Connections: []domain.CorrectConnection{
				conn(bat, "bat-pos", inv, "inv-dc-pos", domain.WireDC, "Battery positive to inverter"),
				conn(bat, "bat-neg", inv, "inv-dc-neg", domain.WireDC, "Battery negative to inverter"),
			},
		},
		Rule{
			Name:     "board-inverter",
			Requires: []string{db, inv},
			Connections: []domain.CorrectConnection{
				conn(db, "db-out-l", inv, "inv-ac-l", domain.WireLive, "Board live to inverter AC input"),
				conn(db, "db-out-n", inv, "inv-ac-n", domain.WireNeutral, "Board neutral to inverter AC input"),
			},
		},
	)
	return rules
}
