// Package buffer provides growth-limited in-memory byte containers for
// materializing HTTP message bodies without exceeding a caller-specified
// capacity.
//
// Two variants cover the two buffering situations:
//
//   - Fixed: the byte length is known up front (e.g. from a Content-Length
//     header). The store is allocated once and writes beyond the limit fail.
//   - Growable: the length is unknown. The store starts small, grows
//     geometrically from a shared Pool, and is returned to the pool on
//     Release.
//
// Writes never silently truncate: any write that would push the buffer past
// its configured limit fails with *CapacityError before the store is
// touched.
//
//	buf := buffer.NewGrowable(pool, maxBytes)
//	defer buf.Release()
//	if _, err := io.Copy(buf, src); err != nil { ... }
//	data := buf.Bytes() // owned copy, safe after Release
package buffer
