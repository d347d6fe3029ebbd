// Package portmap implements ordered from/to TCP/UDP port remapping.
package portmap

// Entry maps one port number to another; it applies to source and
// destination ports alike.
type Entry struct {
	From uint16
	To   uint16
}

// Table is an ordered list of port-map entries. Entries are evaluated in
// registration order; source and destination ports are looked up separately,
// and for each the first matching entry wins.
type Table []Entry

// Add appends a from/to pair to the table.
func (t *Table) Add(from, to uint16) {
	*t = append(*t, Entry{From: from, To: to})
}

// Lookup returns the mapped port for port, if any entry matches.
func (t Table) Lookup(port uint16) (uint16, bool) {
	for _, e := range t {
		if e.From == port {
			return e.To, true
		}
	}
	return port, false
}

// RewriteSourceAndDest applies the table to a (source, destination) port
// pair, rewriting whichever side(s) match. It reports whether either port
// changed.
func (t Table) RewriteSourceAndDest(src, dst uint16) (newSrc, newDst uint16, changed bool) {
	newSrc, srcChanged := t.Lookup(src)
	newDst, dstChanged := t.Lookup(dst)
	return newSrc, newDst, srcChanged || dstChanged
}
