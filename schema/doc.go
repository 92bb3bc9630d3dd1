// Package schema defines SECS-II stream/function message schemas and the dispatcher that maps
// data messages to them.
//
// A Schema describes one message type: its body Shape, built from dataitem leaves and lists,
// the directions it may travel in and its reply contract. Schemas are kept in a Registry;
// Standard returns a registry preloaded with the SEMI E5 messages used by GEM equipment.
//
// A Dispatcher is bound to the local role (host or equipment). Inbound, it decodes a raw body,
// validates it against the schema and returns a typed Message; outbound, it checks the
// direction, W-bit, body shape and block size of a message before it is sent.
//
//	d := schema.NewDispatcher(nil, schema.RoleHost)
//	msg, err := d.NewMessage(1, 3, secs2.L(dataitem.SVID.MustBuild(1001)))
//
// Classify maps any error returned by this package, secs2 or hsms to the reaction expected from
// the connection layer.
package schema
