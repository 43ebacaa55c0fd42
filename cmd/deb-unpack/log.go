package main

import (
	"fmt"
	"log/slog"

	"github.com/etnz/deb-unpack/deb"
)

// logListener logs unpack events: warnings at Warn level, extraction
// milestones at Info and everything else at Debug.
func logListener(l *slog.Logger) deb.Listener {
	return func(e fmt.Stringer) {
		switch e := e.(type) {
		case deb.Warning:
			l.Warn(e.Warning())
		case deb.EventTarExtractSuccess:
			l.Info("extracted tar member", "source", e.Source, "dest", e.Dest, "entries", e.Entries)
		default:
			l.Debug("unpack event", "event", e.String())
		}
	}
}
