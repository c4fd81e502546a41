package catalog

// Built-in component ids.
const (
	PowerSupply       = "power-supply"
	MCB               = "mcb"
	DistributionBoard = "distribution-board"
	Switch            = "switch"
	Regulator         = "regulator"
	Fan               = "fan"
	Bulb              = "bulb"
	TubeLight         = "tube-light"
	Socket5A          = "socket-5a"
	Socket15A         = "socket-15a"
	Battery           = "battery"
	Inverter          = "inverter"
)

// Terminal colours.
const (
	colorLive    = "#ef4444"
	colorNeutral = "#3b82f6"
	colorEarth   = "#22c55e"
	colorDCPos   = "#f59e0b"
	colorDCNeg   = "#6b7280"
)

func live(id string, side Side) Terminal { return Terminal{ID: id, Type: TypeLive, Position: side, Color: colorLive} }
func neutral(id string, side Side) Terminal { return Terminal{ID: id, Type: TypeNeutral, Position: side, Color: colorNeutral} }
func earth(id string, side Side) Terminal { return Terminal{ID: id, Type: TypeEarth, Position: side, Color: colorEarth} }

// BuiltinComponents returns the standard household wiring components.
func BuiltinComponents() []Component {
	return []Component{
		{
			ID: PowerSupply, Name: "Power Supply", Category: CategoryPower,
			Terminals: []Terminal{
				live("supply-l", SideRight),
				neutral("supply-n", SideRight),
				earth("supply-e", SideBottom),
			},
			RequiredBy: []string{MCB},
		},
		{
			ID: MCB, Name: "MCB", Category: CategoryPower,
			Terminals: []Terminal{
				live("mcb-in-l", SideLeft),
				neutral("mcb-in-n", SideLeft),
				live("mcb-out-l", SideRight),
				neutral("mcb-out-n", SideRight),
			},
			Requires:   []string{PowerSupply},
			RequiredBy: []string{DistributionBoard},
		},
		{
			ID: DistributionBoard, Name: "Distribution Board", Category: CategoryPower,
			Terminals: []Terminal{
				live("db-in-l", SideLeft),
				neutral("db-in-n", SideLeft),
				earth("db-in-e", SideLeft),
				live("db-out-l", SideRight),
				neutral("db-out-n", SideRight),
				earth("db-out-e", SideBottom),
			},
			Requires: []string{MCB},
		},
		{
			ID: Switch, Name: "Switch", Category: CategoryControl,
			Terminals: []Terminal{
				{ID: "sw-in", Type: TypeIn, Position: SideLeft, Color: colorLive},
				{ID: "sw-out", Type: TypeOut, Position: SideRight, Color: colorLive},
			},
			Requires: []string{DistributionBoard},
		},
		{
			ID: Regulator, Name: "Fan Regulator", Category: CategoryControl,
			Terminals: []Terminal{
				{ID: "reg-in", Type: TypeIn, Position: SideLeft, Color: colorLive},
				{ID: "reg-out", Type: TypeOut, Position: SideRight, Color: colorLive},
			},
			Requires:   []string{Switch},
			RequiredBy: []string{Fan},
		},
		{
			ID: Fan, Name: "Ceiling Fan", Category: CategoryLoad,
			Terminals: []Terminal{
				live("fan-l", SideLeft),
				neutral("fan-n", SideLeft),
				earth("fan-e", SideBottom),
			},
			Requires: []string{DistributionBoard},
		},
		{
			ID: Bulb, Name: "Bulb", Category: CategoryLoad,
			Terminals: []Terminal{
				live("bulb-l", SideLeft),
				neutral("bulb-n", SideLeft),
			},
			Requires: []string{DistributionBoard},
		},
		{
			ID: TubeLight, Name: "Tube Light", Category: CategoryLoad,
			Terminals: []Terminal{
				live("tube-l", SideLeft),
				neutral("tube-n", SideLeft),
				earth("tube-e", SideBottom),
			},
			Requires: []string{DistributionBoard},
		},
		{
			ID: Socket5A, Name: "5A Socket", Category: CategoryLoad,
			Terminals: []Terminal{
				live("s5-l", SideLeft),
				neutral("s5-n", SideLeft),
				earth("s5-e", SideBottom),
			},
			Requires: []string{DistributionBoard},
		},
		{
			ID: Socket15A, Name: "15A Socket", Category: CategoryLoad,
			Terminals: []Terminal{
				live("s15-l", SideLeft),
				neutral("s15-n", SideLeft),
				earth("s15-e", SideBottom),
			},
			Requires: []string{DistributionBoard},
		},
		{
			ID: Battery, Name: "Battery", Category: CategoryBackup,
			Terminals: []Terminal{
				{ID: "bat-pos", Type: TypeDCPos, Position: SideRight, Color: colorDCPos},
				{ID: "bat-neg", Type: TypeDCNeg, Position: SideRight, Color: colorDCNeg},
			},
			RequiredBy: []string{Inverter},
		},
		{
			ID: Inverter, Name: "Inverter", Category: CategoryBackup,
			Terminals: []Terminal{
				{ID: "inv-dc-pos", Type: TypeDCPos, Position: SideLeft, Color: colorDCPos},
				{ID: "inv-dc-neg", Type: TypeDCNeg, Position: SideLeft, Color: colorDCNeg},
				live("inv-ac-l", SideRight),
				neutral("inv-ac-n", SideRight),
			},
			Requires: []string{Battery},
		},
	}
}

// Builtin returns a Catalog of the standard components.
func Builtin() *Catalog {
	return MustNew(BuiltinComponents()...)
}

// LoadIDs lists the components that count as a load for circuit status.
var LoadIDs = []string{Fan, Bulb, TubeLight, Socket5A, Socket15A}

// PowerChainIDs lists the supply → breaker → board chain.
var PowerChainIDs = []string{PowerSupply, MCB, DistributionBoard}
