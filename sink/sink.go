// Package sink delivers normalized records to their destination. Sinks are
// deliberately thin and replaceable: the exporter hands each record over once
// and holds no reference afterwards.
package sink

import (
	"adexport/normalize"
)

type Sink interface {
	Write(record *normalize.Record) error
	Close() error
}
