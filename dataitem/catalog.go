package dataitem

import (
	"fmt"
	"sort"

	"github.com/arloliu/go-secsgem/secs2"
)

var (
	binary  = []secs2.Kind{secs2.BinaryKind}
	boolean = []secs2.Kind{secs2.BooleanKind}
	ascii   = []secs2.Kind{secs2.ASCIIKind}
	text    = []secs2.Kind{secs2.ASCIIKind, secs2.BinaryKind}
	integer = secs2.IntegerKinds
	id      = append(append([]secs2.Kind{}, secs2.IntegerKinds...), secs2.ASCIIKind)
	scalar  = append(append([]secs2.Kind{secs2.ASCIIKind, secs2.BinaryKind, secs2.BooleanKind}, secs2.IntegerKinds...), secs2.FloatKinds...)
	anyKind = append([]secs2.Kind{secs2.ListKind}, scalar...)
)

// Standard SEMI E5 data items used by the standard message table.
var (
	ACKC5     = New("ACKC5", binary, 1)
	ACKC6     = New("ACKC6", binary, 1)
	ACKC7     = New("ACKC7", binary, 1)
	ACKC10    = New("ACKC10", binary, 1)
	ALCD      = New("ALCD", binary, 1)
	ALED      = New("ALED", binary, 1)
	ALID      = New("ALID", integer, 1)
	ALTX      = New("ALTX", ascii, 0).WithMaxCount(120)
	CEED      = New("CEED", boolean, 1)
	CEID      = New("CEID", id, 0)
	CENAME    = New("CENAME", ascii, 0)
	CEPACK    = New("CEPACK", anyKind, 0)
	CEPVAL    = New("CEPVAL", anyKind, 0)
	COMMACK   = New("COMMACK", binary, 1)
	CPACK     = New("CPACK", binary, 1)
	CPNAME    = New("CPNAME", id, 0)
	CPVAL     = New("CPVAL", scalar, 0)
	DATAID    = New("DATAID", id, 0)
	DRACK     = New("DRACK", binary, 1)
	DVVALNAME = New("DVVALNAME", ascii, 0)
	EAC       = New("EAC", binary, 1)
	ECDEF     = New("ECDEF", scalar, 0)
	ECID      = New("ECID", id, 0)
	ECMAX     = New("ECMAX", scalar, 0)
	ECMIN     = New("ECMIN", scalar, 0)
	ECNAME    = New("ECNAME", ascii, 0)
	ECV       = New("ECV", anyKind, 0)
	EDID      = New("EDID", append(append([]secs2.Kind{}, text...), integer...), 0)
	ERACK     = New("ERACK", binary, 1)
	FCNID     = New("FCNID", []secs2.Kind{secs2.Uint8Kind}, 1)
	HCACK     = New("HCACK", binary, 1)
	LENGTH    = New("LENGTH", integer, 1)
	LRACK     = New("LRACK", binary, 1)
	MDLN      = New("MDLN", ascii, 0).WithMaxCount(20)
	MEXP      = New("MEXP", ascii, 0).WithMaxCount(6)
	MHEAD     = New("MHEAD", binary, 10)
	OBJSPEC   = New("OBJSPEC", ascii, 0)
	OFLACK    = New("OFLACK", binary, 1)
	ONLACK    = New("ONLACK", binary, 1)
	PPBODY    = New("PPBODY", []secs2.Kind{secs2.BinaryKind, secs2.ASCIIKind, secs2.Uint8Kind, secs2.Int8Kind}, 0)
	PPGNT     = New("PPGNT", binary, 1)
	PPID      = New("PPID", text, 0).WithMaxCount(120)
	RCMD      = New("RCMD", []secs2.Kind{secs2.ASCIIKind, secs2.Uint8Kind, secs2.Int8Kind}, 0)
	RPTID     = New("RPTID", id, 0)
	RSPACK    = New("RSPACK", binary, 1)
	SFCD      = New("SFCD", binary, 1)
	SHEAD     = New("SHEAD", binary, 10)
	SMPLN     = New("SMPLN", integer, 1)
	SOFTREV   = New("SOFTREV", ascii, 0).WithMaxCount(20)
	STIME     = New("STIME", ascii, 0)
	STRACK    = New("STRACK", binary, 1)
	STRID     = New("STRID", []secs2.Kind{secs2.Uint8Kind}, 1)
	SV        = New("SV", anyKind, 0)
	SVID      = New("SVID", id, 0)
	SVNAME    = New("SVNAME", ascii, 0)
	TEXT      = New("TEXT", text, 0)
	TIACK     = New("TIACK", binary, 1)
	TID       = New("TID", binary, 1)
	TIME      = New("TIME", ascii, 0).WithMaxCount(32)
	TRID      = New("TRID", id, 0)
	UNITS     = New("UNITS", ascii, 0)
	V         = New("V", anyKind, 0)
	VID       = New("VID", id, 0)
)

var catalog = map[string]*DataItem{}

func init() {
	for _, di := range []*DataItem{
		ACKC5, ACKC6, ACKC7, ACKC10, ALCD, ALED, ALID, ALTX, CEED, CEID, CENAME, CEPACK, CEPVAL,
		COMMACK, CPACK, CPNAME, CPVAL, DATAID, DRACK, DVVALNAME, EAC, ECDEF, ECID, ECMAX, ECMIN,
		ECNAME, ECV, EDID, ERACK, FCNID, HCACK, LENGTH, LRACK, MDLN, MEXP, MHEAD, OBJSPEC, OFLACK,
		ONLACK, PPBODY, PPGNT, PPID, RCMD, RPTID, RSPACK, SFCD, SHEAD, SMPLN, SOFTREV, STIME,
		STRACK, STRID, SV, SVID, SVNAME, TEXT, TIACK, TID, TIME, TRID, UNITS, V, VID,
	} {
		catalog[di.Name] = di
	}
}

// Lookup returns the standard data item with the given mnemonic.
func Lookup(name string) (*DataItem, bool) {
	di, ok := catalog[name]
	return di, ok
}

// MustLookup is like Lookup but panics when name is unknown.
func MustLookup(name string) *DataItem {
	di, ok := catalog[name]
	if !ok {
		panic(fmt.Sprintf("unknown data item %q", name))
	}

	return di
}

// Names returns the mnemonics of all standard data items in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
