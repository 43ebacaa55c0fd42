// Package deb unpacks Debian binary packages (.deb files) onto the filesystem.
//
// # Pipeline
//
// A .deb file is an ar(1) container holding, in order, a "debian-binary"
// version marker, a compressed control archive (control.tar.*) and a
// compressed payload archive (data.tar.*). Unpack drives the whole pipeline:
//
//   - The container is read member by member and every member is copied
//     byte-for-byte into the working directory.
//   - Every member whose name contains ".tar" becomes a TarJob. Its
//     destination subdirectory is "control" for control.tar.*, "data" for
//     data.tar.*, and the name before the first dot otherwise.
//   - Each TarJob is decompressed according to its suffix (.tar, .tar.gz,
//     .tar.xz) and extracted under its subdirectory.
//   - The "control/control" file is parsed into an ordered key-value Control.
//
// # Working directory
//
// The caller owns the working directory. Unpack creates files inside it and
// never removes it, even on failure.
//
// # Errors
//
// Fatal failures are reported as *Error values carrying a Kind, so callers
// can tell a missing input apart from a corrupt archive. Per-entry anomalies
// (undecodable member names, unknown tar member names, unsupported tar entry
// types) are not errors: they are reported to the Listener as warnings and
// the pipeline continues.
//
// # Path safety
//
// Member names and tar entry names are joined onto their destination as-is
// unless Options.SafePaths is set, in which case they are confined to the
// destination directory. A hostile package can write outside the working
// directory through "../" segments when SafePaths is off.
package deb
