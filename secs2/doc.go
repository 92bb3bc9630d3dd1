// Package secs2 implements SECS-II data items: the typed, self-describing values carried in the
// body of SECS messages, and their binary encoding defined by SEMI E5.
//
// Every item has a Kind (L, B, BOOLEAN, A, I1..I8, U1..U8, F4, F8). On the wire an item is a
// format byte (format code in the upper 6 bits, number of length bytes in the lower 2 bits),
// one to three big-endian length bytes and the payload. A list's length is its element count.
//
// Usage Example:
//
//	item := secs2.L(
//	    secs2.U4(1337),
//	    secs2.A("hello"),
//	)
//	data := item.ToBytes()
//
//	decoded, err := secs2.DecodeAll(data)
//	// decoded.Equal(item) == true
//
// DynamicItem covers data items that admit several formats, such as an ID that may be sent
// as U1, U2, U4 or A:
//
//	id := secs2.NewDynamicItem(secs2.Uint8Kind, secs2.Uint32Kind, secs2.ASCIIKind)
//	_ = id.Set(300) // resolves to U4
package secs2
