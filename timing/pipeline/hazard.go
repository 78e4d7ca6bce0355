package pipeline

// HazardKind classifies a pipeline hazard.
type HazardKind uint8

const (
	HazardNone HazardKind = iota
	HazardRAW
	HazardWAW
	HazardWAR
	HazardControl
	HazardStructural
)

var hazardNames = map[HazardKind]string{
	HazardNone:       "NONE",
	HazardRAW:        "RAW",
	HazardWAW:        "WAW",
	HazardWAR:        "WAR",
	HazardControl:    "CONTROL",
	HazardStructural: "STRUCTURAL",
}

func (k HazardKind) String() string {
	if name, ok := hazardNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// checkDataHazard compares a decoding packet against one still in flight
// ahead of it. RAW takes priority over WAW, WAW over WAR, so a pair that
// conflicts several ways reports its most severe dependence.
func checkDataHazard(current, earlier *Packet) HazardKind {
	if earlier.HasDest {
		if current.UsesSrc1 && current.Src1 == earlier.Dest {
			return HazardRAW
		}
		if current.UsesSrc2 && current.Src2 == earlier.Dest {
			return HazardRAW
		}
		if current.HasDest && current.Dest == earlier.Dest {
			return HazardWAW
		}
	}
	if current.HasDest {
		if earlier.UsesSrc1 && earlier.Src1 == current.Dest {
			return HazardWAR
		}
		if earlier.UsesSrc2 && earlier.Src2 == current.Dest {
			return HazardWAR
		}
	}
	return HazardNone
}
