package types

// ObjectFlag bits compose the ObjectFlags relation's codomain bitset.
type ObjectFlag uint8

const (
	FlagUser ObjectFlag = 1 << iota
	FlagProgrammer
	FlagWizard
	FlagRead
	FlagWrite
	FlagFertile
)

// ObjectFlags is a bitset of ObjectFlag values.
type ObjectFlags uint8

func (f ObjectFlags) Has(flag ObjectFlag) bool { return f&ObjectFlags(flag) != 0 }
func (f ObjectFlags) Set(flag ObjectFlag) ObjectFlags { return f | ObjectFlags(flag) }
func (f ObjectFlags) Clear(flag ObjectFlag) ObjectFlags { return f &^ ObjectFlags(flag) }

// VerbFlag bits compose a VerbDef's flag bitset.
type VerbFlag uint8

const (
	VerbRead VerbFlag = 1 << iota
	VerbWrite
	VerbExec
	VerbDebug
)

type VerbFlags uint8

func (f VerbFlags) Has(flag VerbFlag) bool { return f&VerbFlags(flag) != 0 }
func (f VerbFlags) Set(flag VerbFlag) VerbFlags { return f | VerbFlags(flag) }
func (f VerbFlags) Clear(flag VerbFlag) VerbFlags { return f &^ VerbFlags(flag) }

// PropFlag bits compose a property's perms bitset.
type PropFlag uint8

const (
	PropRead PropFlag = 1 << iota
	PropWrite
	PropChown
)

type PropFlags uint8

func (f PropFlags) Has(flag PropFlag) bool { return f&PropFlags(flag) != 0 }
func (f PropFlags) Set(flag PropFlag) PropFlags { return f | PropFlags(flag) }
func (f PropFlags) Clear(flag PropFlag) PropFlags { return f &^ PropFlags(flag) }
