package provider

import (
	"os"
	"time"
)

// FileType is the kind of namespace entry.
type FileType string

const (
	TypeFile      FileType = "file"
	TypeDirectory FileType = "directory"
	TypeOther     FileType = "other"
)

// FileInfo is the Directory Entry returned by List and GetPathInfo.
type FileInfo struct {
	// Path is the absolute path of the entry.
	Path string `json:"path" yaml:"path"`

	Type FileType `json:"type" yaml:"type"`

	// Size is the length of the file in bytes. Zero for directories.
	Size int64 `json:"size" yaml:"size"`

	// Replication is the replication factor of a file. Zero for directories.
	Replication int16 `json:"replication" yaml:"replication"`

	// BlockSize is the block size the file was written with.
	BlockSize int64 `json:"block_size" yaml:"block_size"`

	Owner string `json:"owner" yaml:"owner"`
	Group string `json:"group" yaml:"group"`

	// Permissions holds the permission bits only (no type bits).
	Permissions os.FileMode `json:"permissions" yaml:"permissions"`

	LastMod    time.Time `json:"last_mod" yaml:"last_mod"`
	LastAccess time.Time `json:"last_access" yaml:"last_access"`
}

// IsDir reports whether the entry is a directory.
func (fi *FileInfo) IsDir() bool {
	return fi.Type == TypeDirectory
}

// WriteOptions parameterize the open of a write handle.
type WriteOptions struct {
	// Replication is the replication factor. Zero uses the provider default.
	Replication int16

	// BlockSize in bytes. Zero uses the provider default.
	BlockSize int64

	// Permission of a newly created file. Zero means 0644.
	Permission os.FileMode
}

// DefaultFilePermission applies when WriteOptions.Permission is zero.
const DefaultFilePermission os.FileMode = 0644

// DefaultDirPermission is used for directories created implicitly.
const DefaultDirPermission os.FileMode = 0755

// FilePermission returns the effective permission for a new file.
func (o WriteOptions) FilePermission() os.FileMode {
	if o.Permission == 0 {
		return DefaultFilePermission
	}
	return o.Permission.Perm()
}

// Params describe how to reach a filesystem. They are copied by value into
// a connection and never mutated afterwards.
type Params struct {
	// Service is the namenode host or nameservice id. "default" selects the
	// filesystem named by the Hadoop configuration.
	Service string `mapstructure:"service" yaml:"service"`

	// Port of the namenode. Zero lets the provider resolve it.
	Port int `mapstructure:"port" yaml:"port"`

	// User to act as. Empty means the current OS user.
	User string `mapstructure:"user" yaml:"user"`

	// KerbTicketCachePath enables Kerberos authentication from a ticket cache.
	KerbTicketCachePath string `mapstructure:"kerb_ticket_cache_path" yaml:"kerb_ticket_cache_path"`

	// AuthToken is a delegation token.
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`

	// ConfigPath is the resolved hdfs-site.xml path, or empty for provider
	// defaults.
	ConfigPath string `mapstructure:"config_path" yaml:"config_path"`
}

const (
	// DefaultService selects the filesystem named by the Hadoop configuration.
	DefaultService = "default"

	// DefaultSupergroup is the group assigned when none is known.
	DefaultSupergroup = "supergroup"
)

// WithDefaults returns a copy of p with unset fields defaulted.
func (p Params) WithDefaults() Params {
	if p.Service == "" {
		p.Service = DefaultService
	}
	if p.Port < 0 {
		p.Port = 0
	}
	return p
}
