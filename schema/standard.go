package schema

import (
	"github.com/arloliu/go-secsgem/dataitem"
	"github.com/arloliu/go-secsgem/secs2"
)

type flow uint8

const (
	hostToEquip flow = 1 << iota
	equipToHost
	both = hostToEquip | equipToHost
)

type replyKind uint8

const (
	noReply replyKind = iota
	waitReply
	optionalReply
)

func def(stream, function byte, name string, f flow, reply replyKind, body Shape) *Schema {
	return &Schema{
		Stream:        stream,
		Function:      function,
		Name:          name,
		Body:          body,
		ToHost:        f&equipToHost != 0,
		ToEquipment:   f&hostToEquip != 0,
		HasReply:      reply != noReply,
		ReplyRequired: reply == waitReply,
	}
}

func multiBlock(s *Schema) *Schema {
	s.MultiBlock = true
	return s
}

// alidVector is ALID in messages where a zero-length value means all alarms.
var alidVector = dataitem.New("ALID", secs2.IntegerKinds, 0)

// standardSchemas returns the SEMI E5 messages known to the standard registry.
func standardSchemas() []*Schema { //nolint:funlen
	var (
		I = Item
		L = List
		N = ListOf

		onlineData  = OneOf(L(), L(I(dataitem.MDLN), I(dataitem.SOFTREV)))
		alarmData   = L(I(dataitem.ALCD), I(dataitem.ALID), I(dataitem.ALTX))
		eventReport = L(I(dataitem.DATAID), I(dataitem.CEID), N(L(I(dataitem.RPTID), N(I(dataitem.V)))))
	)

	return []*Schema{
		// abort transactions
		def(1, 0, "Abort Transaction", both, noReply, Empty()),
		def(2, 0, "Abort Transaction", both, noReply, Empty()),
		def(5, 0, "Abort Transaction", both, noReply, Empty()),
		def(6, 0, "Abort Transaction", both, noReply, Empty()),
		def(7, 0, "Abort Transaction", both, noReply, Empty()),
		def(10, 0, "Abort Transaction", both, noReply, Empty()),

		// stream 1: equipment status
		def(1, 1, "Are You There Request", both, waitReply, Empty()),
		def(1, 2, "On Line Data", both, noReply, onlineData),
		def(1, 3, "Selected Equipment Status Request", hostToEquip, waitReply, N(I(dataitem.SVID))),
		multiBlock(def(1, 4, "Selected Equipment Status Data", equipToHost, noReply, N(I(dataitem.SV)))),
		def(1, 5, "Formatted Status Request", hostToEquip, waitReply, I(dataitem.SFCD)),
		multiBlock(def(1, 6, "Formatted Status Data", equipToHost, noReply, I(dataitem.V))),
		def(1, 11, "Status Variable Namelist Request", hostToEquip, waitReply, N(I(dataitem.SVID))),
		multiBlock(def(1, 12, "Status Variable Namelist Reply", equipToHost, noReply,
			N(L(I(dataitem.SVID), I(dataitem.SVNAME), I(dataitem.UNITS))))),
		def(1, 13, "Establish Communications Request", both, waitReply, onlineData),
		def(1, 14, "Establish Communications Request Acknowledge", both, noReply, L(I(dataitem.COMMACK), onlineData)),
		def(1, 15, "Request OFF-LINE", hostToEquip, waitReply, Empty()),
		def(1, 16, "OFF-LINE Acknowledge", equipToHost, noReply, I(dataitem.OFLACK)),
		def(1, 17, "Request ON-LINE", hostToEquip, waitReply, Empty()),
		def(1, 18, "ON-LINE Acknowledge", equipToHost, noReply, I(dataitem.ONLACK)),
		def(1, 21, "Data Variable Namelist Request", hostToEquip, waitReply, N(I(dataitem.VID))),
		multiBlock(def(1, 22, "Data Variable Namelist", equipToHost, noReply,
			N(L(I(dataitem.VID), I(dataitem.DVVALNAME), I(dataitem.UNITS))))),
		def(1, 23, "Collection Event Namelist Request", hostToEquip, waitReply, N(I(dataitem.CEID))),
		multiBlock(def(1, 24, "Collection Event Namelist", equipToHost, noReply,
			N(L(I(dataitem.CEID), I(dataitem.CENAME), N(I(dataitem.VID)))))),

		// stream 2: equipment control and diagnostics
		def(2, 13, "Equipment Constant Request", hostToEquip, waitReply, N(I(dataitem.ECID))),
		multiBlock(def(2, 14, "Equipment Constant Data", equipToHost, noReply, N(I(dataitem.ECV)))),
		multiBlock(def(2, 15, "New Equipment Constant Send", hostToEquip, waitReply,
			N(L(I(dataitem.ECID), I(dataitem.ECV))))),
		def(2, 16, "New Equipment Constant Acknowledge", equipToHost, noReply, I(dataitem.EAC)),
		def(2, 17, "Date and Time Request", both, waitReply, Empty()),
		def(2, 18, "Date and Time Data", both, noReply, I(dataitem.TIME)),
		def(2, 29, "Equipment Constant Namelist Request", hostToEquip, waitReply, N(I(dataitem.ECID))),
		multiBlock(def(2, 30, "Equipment Constant Namelist", equipToHost, noReply,
			N(L(I(dataitem.ECID), I(dataitem.ECNAME), I(dataitem.ECMIN), I(dataitem.ECMAX),
				I(dataitem.ECDEF), I(dataitem.UNITS))))),
		def(2, 31, "Date and Time Set Request", hostToEquip, waitReply, I(dataitem.TIME)),
		def(2, 32, "Date and Time Set Acknowledge", equipToHost, noReply, I(dataitem.TIACK)),
		multiBlock(def(2, 33, "Define Report", hostToEquip, waitReply,
			L(I(dataitem.DATAID), N(L(I(dataitem.RPTID), N(I(dataitem.VID))))))),
		def(2, 34, "Define Report Acknowledge", equipToHost, noReply, I(dataitem.DRACK)),
		multiBlock(def(2, 35, "Link Event Report", hostToEquip, waitReply,
			L(I(dataitem.DATAID), N(L(I(dataitem.CEID), N(I(dataitem.RPTID))))))),
		def(2, 36, "Link Event Report Acknowledge", equipToHost, noReply, I(dataitem.LRACK)),
		def(2, 37, "Enable/Disable Event Report", hostToEquip, waitReply,
			L(I(dataitem.CEED), N(I(dataitem.CEID)))),
		def(2, 38, "Enable/Disable Event Report Acknowledge", equipToHost, noReply, I(dataitem.ERACK)),
		def(2, 41, "Host Command Send", hostToEquip, waitReply,
			L(I(dataitem.RCMD), N(L(I(dataitem.CPNAME), I(dataitem.CPVAL))))),
		def(2, 42, "Host Command Acknowledge", equipToHost, noReply,
			L(I(dataitem.HCACK), N(L(I(dataitem.CPNAME), I(dataitem.CPACK))))),
		def(2, 43, "Reset Spooling Streams and Functions", hostToEquip, waitReply,
			N(L(I(dataitem.STRID), N(I(dataitem.FCNID))))),
		def(2, 44, "Reset Spooling Acknowledge", equipToHost, noReply,
			L(I(dataitem.RSPACK), N(L(I(dataitem.STRID), I(dataitem.STRACK), N(I(dataitem.FCNID)))))),
		multiBlock(def(2, 49, "Enhanced Remote Command", hostToEquip, waitReply,
			L(I(dataitem.DATAID), I(dataitem.OBJSPEC), I(dataitem.RCMD), N(L(I(dataitem.CPNAME), I(dataitem.CEPVAL)))))),
		def(2, 50, "Enhanced Remote Command Acknowledge", equipToHost, noReply,
			L(I(dataitem.HCACK), N(L(I(dataitem.CPNAME), I(dataitem.CEPACK))))),

		// stream 5: exception handling
		def(5, 1, "Alarm Report Send", equipToHost, optionalReply, alarmData),
		def(5, 2, "Alarm Report Acknowledge", hostToEquip, noReply, I(dataitem.ACKC5)),
		def(5, 3, "Enable/Disable Alarm Send", hostToEquip, optionalReply, L(I(dataitem.ALED), I(alidVector))),
		def(5, 4, "Enable/Disable Alarm Acknowledge", equipToHost, noReply, I(dataitem.ACKC5)),
		def(5, 5, "List Alarms Request", hostToEquip, waitReply, I(alidVector)),
		multiBlock(def(5, 6, "List Alarm Data", equipToHost, noReply, N(alarmData))),
		def(5, 7, "List Enabled Alarm Request", hostToEquip, waitReply, Empty()),
		multiBlock(def(5, 8, "List Enabled Alarm Data", equipToHost, noReply, N(alarmData))),

		// stream 6: data collection
		multiBlock(def(6, 1, "Trace Data Send", equipToHost, optionalReply,
			L(I(dataitem.TRID), I(dataitem.SMPLN), I(dataitem.STIME), N(I(dataitem.SV))))),
		def(6, 2, "Trace Data Acknowledge", hostToEquip, noReply, I(dataitem.ACKC6)),
		multiBlock(def(6, 11, "Event Report Send", equipToHost, waitReply, eventReport)),
		def(6, 12, "Event Report Acknowledge", hostToEquip, noReply, I(dataitem.ACKC6)),
		def(6, 15, "Event Report Request", hostToEquip, waitReply, I(dataitem.CEID)),
		multiBlock(def(6, 16, "Event Report Data", equipToHost, noReply, eventReport)),
		def(6, 19, "Individual Report Request", hostToEquip, waitReply, I(dataitem.RPTID)),
		multiBlock(def(6, 20, "Individual Report Data", equipToHost, noReply, N(I(dataitem.V)))),

		// stream 7: process program management
		def(7, 1, "Process Program Load Inquire", both, waitReply, L(I(dataitem.PPID), I(dataitem.LENGTH))),
		def(7, 2, "Process Program Load Grant", both, noReply, I(dataitem.PPGNT)),
		multiBlock(def(7, 3, "Process Program Send", both, waitReply, L(I(dataitem.PPID), I(dataitem.PPBODY)))),
		def(7, 4, "Process Program Acknowledge", both, noReply, I(dataitem.ACKC7)),
		def(7, 5, "Process Program Request", both, waitReply, I(dataitem.PPID)),
		multiBlock(def(7, 6, "Process Program Data", both, noReply,
			OneOf(L(), L(I(dataitem.PPID), I(dataitem.PPBODY))))),
		def(7, 17, "Delete Process Program Send", hostToEquip, waitReply, N(I(dataitem.PPID))),
		def(7, 18, "Delete Process Program Acknowledge", equipToHost, noReply, I(dataitem.ACKC7)),
		def(7, 19, "Current EPPD Request", hostToEquip, waitReply, Empty()),
		multiBlock(def(7, 20, "Current EPPD Data", equipToHost, noReply, N(I(dataitem.PPID)))),

		// stream 9: system errors
		def(9, 1, "Unrecognized Device ID", equipToHost, noReply, I(dataitem.MHEAD)),
		def(9, 3, "Unrecognized Stream Type", equipToHost, noReply, I(dataitem.MHEAD)),
		def(9, 5, "Unrecognized Function Type", equipToHost, noReply, I(dataitem.MHEAD)),
		def(9, 7, "Illegal Data", equipToHost, noReply, I(dataitem.MHEAD)),
		def(9, 9, "Transaction Timer Timeout", equipToHost, noReply, I(dataitem.SHEAD)),
		def(9, 11, "Data Too Long", equipToHost, noReply, I(dataitem.MHEAD)),
		def(9, 13, "Conversation Timeout", equipToHost, noReply, L(I(dataitem.MEXP), I(dataitem.EDID))),

		// stream 10: terminal services
		def(10, 1, "Terminal Request", equipToHost, optionalReply, L(I(dataitem.TID), I(dataitem.TEXT))),
		def(10, 2, "Terminal Request Acknowledge", hostToEquip, noReply, I(dataitem.ACKC10)),
		def(10, 3, "Terminal Display, Single", hostToEquip, waitReply, L(I(dataitem.TID), I(dataitem.TEXT))),
		def(10, 4, "Terminal Display, Single Acknowledge", equipToHost, noReply, I(dataitem.ACKC10)),
		multiBlock(def(10, 5, "Terminal Display, Multi-Block", hostToEquip, waitReply,
			L(I(dataitem.TID), N(I(dataitem.TEXT))))),
		def(10, 6, "Terminal Display, Multi-Block Acknowledge", equipToHost, noReply, I(dataitem.ACKC10)),
	}
}
