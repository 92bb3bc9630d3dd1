// Package dataitem defines SECS-II data items: named value definitions such as ALID or MDLN that
// restrict which item kinds and how many elements a value may carry.
//
// Definitions validate decoded values and build outgoing ones, choosing the narrowest allowed
// kind:
//
//	item, err := dataitem.ALID.Build(1001) // <U2[1] 1001>
//	_, err = dataitem.ACKC5.Validate(secs2.B(0, 0)) // ErrCountMismatch
//
// The standard items used by the schema package are available by name through Lookup.
package dataitem
