package deb

import (
	"encoding/json"
	"fmt"
)

// Listener is a callback function that receives events during unpacking.
type Listener func(fmt.Stringer)

// Warning is implemented by events reporting a recoverable anomaly: the
// affected entry was skipped or renamed and unpacking went on.
type Warning interface {
	fmt.Stringer
	Warning() string
}

func jsonString(v interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		fmt.Sprintf("%T", v): v,
	})
	return string(b)
}

// EventMemberSkipped is emitted when an ar member is ignored because its
// name cannot be used.
type EventMemberSkipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

func (e EventMemberSkipped) String() string { return jsonString(e) }

func (e EventMemberSkipped) Warning() string {
	return fmt.Sprintf("skipping ar member %s: %s", e.Name, e.Reason)
}

// EventMemberMaterialized is emitted when an ar member has been copied into
// the working directory.
type EventMemberMaterialized struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
	Size int64  `json:"size"`
}

func (e EventMemberMaterialized) String() string { return jsonString(e) }

// EventTarFallbackName is emitted when a tar member is neither control.tar.*
// nor data.tar.* and its subdirectory is derived from its name.
type EventTarFallbackName struct {
	File   string `json:"file,omitempty"`
	Subdir string `json:"subdir,omitempty"`
}

func (e EventTarFallbackName) String() string { return jsonString(e) }

func (e EventTarFallbackName) Warning() string {
	return fmt.Sprintf("tar member %q is neither control.tar.* nor data.tar.*, using subdirectory %q", e.File, e.Subdir)
}

// EventTarExtractStart is emitted before a tar member is extracted.
type EventTarExtractStart struct {
	Source      string `json:"source,omitempty"`
	Dest        string `json:"dest,omitempty"`
	Compression string `json:"compression,omitempty"`
}

func (e EventTarExtractStart) String() string { return jsonString(e) }

// EventTarEntrySkipped is emitted for tar entries of a type that is not
// materialized (devices, fifos...).
type EventTarEntrySkipped struct {
	Source string `json:"source,omitempty"`
	Entry  string `json:"entry,omitempty"`
	Type   string `json:"type,omitempty"`
}

func (e EventTarEntrySkipped) String() string { return jsonString(e) }

func (e EventTarEntrySkipped) Warning() string {
	return fmt.Sprintf("skipping tar entry %q of type %s", e.Entry, e.Type)
}

// EventTarExtractSuccess is emitted once a tar member is fully extracted.
type EventTarExtractSuccess struct {
	Source  string `json:"source,omitempty"`
	Dest    string `json:"dest,omitempty"`
	Entries int    `json:"entries"`
}

func (e EventTarExtractSuccess) String() string { return jsonString(e) }

// EventControlParsed is emitted after the control file has been parsed.
type EventControlParsed struct {
	Path   string `json:"path,omitempty"`
	Fields int    `json:"fields"`
}

func (e EventControlParsed) String() string { return jsonString(e) }
