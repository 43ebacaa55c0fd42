package deb

// ControlField represents a standard field in a Debian control file.
type ControlField string

const (
	FieldPackage      ControlField = "Package"
	FieldVersion      ControlField = "Version"
	FieldArchitecture ControlField = "Architecture"
	FieldMaintainer   ControlField = "Maintainer"
	FieldDescription  ControlField = "Description"
	FieldDepends      ControlField = "Depends"
)

// ControlFile represents a standard file found in the control.tar.* archive.
type ControlFile string

const (
	FileControl   ControlFile = "control"
	FileMd5sums   ControlFile = "md5sums"
	FileConffiles ControlFile = "conffiles"
)

// PackageFile represents a standard member of the .deb archive (ar format).
type PackageFile string

const (
	PkgDebianBinary PackageFile = "debian-binary"
	PkgControlTarGz PackageFile = "control.tar.gz"
	PkgDataTarGz    PackageFile = "data.tar.gz"
)

// Destination subdirectories under the working directory.
const (
	SubdirControl = "control"
	SubdirData    = "data"

	// SubdirFallback is used for tar members whose name yields no usable
	// prefix.
	SubdirFallback = "unknown_tar_content"
)
