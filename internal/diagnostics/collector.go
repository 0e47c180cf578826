package diagnostics

import (
	"fmt"
	"io"
	"os"
)

type Diag struct {
	Message string
	Err     error
}

type Collector struct {
	Diags []Diag

	out io.Writer
}

func New() *Collector {
	return NewWithWriter(os.Stderr)
}

func NewWithWriter(out io.Writer) *Collector {
	if out == nil {
		out = io.Discard
	}
	return &Collector{
		Diags: nil,
		out:   out,
	}
}

func (collector *Collector) ReportAndSave(diag Diag) {
	fmt.Fprintln(collector.out, diag.Message)
	collector.Diags = append(collector.Diags, diag)
}

// Report saves err as a diagnostic and hands it back, so callers can write
// `return collector.Report(err)`.
func (collector *Collector) Report(err error) error {
	if collector == nil || err == nil {
		return err
	}
	collector.ReportAndSave(Diag{Message: err.Error(), Err: err})
	return err
}

func (collector *Collector) HasErrors() bool {
	return len(collector.Diags) > 0
}
