// Package ioformat implements the YAML document formats for a netlist, a
// die outline, and an allocation's cell list, following the documents
// described by the external-interfaces section of the floorplanner's
// design: a Modules map keyed by module name plus a Nets list for a
// netlist, a Width/Height/Regions document for a die, and a flat cell
// list for an allocation.
package ioformat
