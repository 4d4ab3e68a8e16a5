package config

import (
	"os"
	"path/filepath"

	"github.com/marmos91/dfsclient/pkg/provider"
)

// Environment variables consulted by ResolveHadoopConfPath.
const (
	EnvLibHDFS3Conf  = "LIBHDFS3_CONF"
	EnvHadoopConfDir = "HADOOP_CONF_DIR"
	EnvHadoopInstall = "HADOOP_INSTALL"
)

const hdfsSite = "hdfs-site.xml"

// ResolveHadoopConfPath picks the hdfs-site.xml a connection uses:
//
//  1. explicit, if non-empty;
//  2. $LIBHDFS3_CONF, if set;
//  3. $HADOOP_CONF_DIR/hdfs-site.xml, if useHadoopEnv and readable;
//  4. $HADOOP_INSTALL/hadoop/conf/hdfs-site.xml, if useHadoopEnv and readable;
//  5. "", leaving the provider defaults.
//
// It only reads through getenv and readable.
func ResolveHadoopConfPath(explicit string, useHadoopEnv bool, getenv func(string) string, readable func(string) bool) string {
	if explicit != "" {
		return explicit
	}
	if p := getenv(EnvLibHDFS3Conf); p != "" {
		return p
	}
	if !useHadoopEnv {
		return ""
	}

	if dir := getenv(EnvHadoopConfDir); dir != "" {
		if p := filepath.Join(dir, hdfsSite); readable(p) {
			return p
		}
	}
	if dir := getenv(EnvHadoopInstall); dir != "" {
		if p := filepath.Join(dir, "hadoop", "conf", hdfsSite); readable(p) {
			return p
		}
	}
	return ""
}

// Readable reports whether path can be opened for reading.
func Readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// Params builds provider parameters, resolving the Hadoop configuration
// path from the process environment.
func (c ConnectionConfig) Params() provider.Params {
	return c.ParamsWith(os.Getenv, Readable)
}

// ParamsWith is Params with explicit environment and file probes.
func (c ConnectionConfig) ParamsWith(getenv func(string) string, readable func(string) bool) provider.Params {
	return provider.Params{
		Service:             c.Service,
		Port:                c.Port,
		User:                c.User,
		KerbTicketCachePath: c.KerbTicketCachePath,
		AuthToken:           c.AuthToken,
		ConfigPath:          ResolveHadoopConfPath(c.HadoopConfPath, c.HadoopEnvEnabled(), getenv, readable),
	}.WithDefaults()
}
