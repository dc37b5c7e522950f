// Package readers loads usage exports of third-party tracking apps into
// normalized per-day tables.
//
// Quick start:
//
//	r, err := readers.NewStayfreeXLSReader("StayFree Export.xls")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range r.UsageTime().Rows() {
//	    fmt.Println(row.Date, row.Entity, row.Duration)
//	}
//
// Every constructor reads and closes its file before returning, so a reader
// holds no open resources. Readers are immutable and safe for concurrent use.
// A failed read returns a *usage.SourceError wrapping one of the usage error
// kinds; no partial table is ever returned.
package readers
