// Package clusterinfo reads namenode topology from Hadoop configuration.
package clusterinfo

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/colinmarc/hdfs/v2/hadoopconf"

	"github.com/marmos91/dfsclient/pkg/provider"
)

// Namenode is one member of an HA nameservice.
type Namenode struct {
	ID          string `json:"id" yaml:"id"`
	RPCAddress  string `json:"rpc_address" yaml:"rpc_address"`
	HTTPAddress string `json:"http_address,omitempty" yaml:"http_address,omitempty"`
}

// Load reads the configuration directory holding the hdfs-site.xml at path.
// An empty path yields an empty configuration.
func Load(path string) (hadoopconf.HadoopConf, error) {
	if path == "" {
		return hadoopconf.HadoopConf{}, nil
	}
	conf, err := hadoopconf.Load(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("load hadoop configuration from %s: %w", path, err)
	}
	return conf, nil
}

// Nameservices lists the nameservices declared in dfs.nameservices.
func Nameservices(conf hadoopconf.HadoopConf) []string {
	return splitList(conf["dfs.nameservices"])
}

// Namenodes returns the HA namenodes of service in configuration order.
// A service without HA configuration returns nil, nil.
func Namenodes(conf hadoopconf.HadoopConf, service string) ([]Namenode, error) {
	ids := splitList(conf["dfs.ha.namenodes."+service])
	if len(ids) == 0 {
		return nil, nil
	}

	result := make([]Namenode, 0, len(ids))
	for _, id := range ids {
		rpc := conf[fmt.Sprintf("dfs.namenode.rpc-address.%s.%s", service, id)]
		if rpc == "" {
			return nil, fmt.Errorf("%w: namenode %s of %s has no rpc address", provider.ErrInvalidInput, id, service)
		}
		result = append(result, Namenode{
			ID:          id,
			RPCAddress:  rpc,
			HTTPAddress: conf[fmt.Sprintf("dfs.namenode.http-address.%s.%s", service, id)],
		})
	}
	return result, nil
}

// RPCAddresses extracts the rpc addresses of nns.
func RPCAddresses(nns []Namenode) []string {
	addrs := make([]string, 0, len(nns))
	for _, nn := range nns {
		addrs = append(addrs, nn.RPCAddress)
	}
	return addrs
}

// All maps every declared nameservice to its namenodes.
func All(conf hadoopconf.HadoopConf) (map[string][]Namenode, error) {
	services := Nameservices(conf)
	sort.Strings(services)

	result := make(map[string][]Namenode, len(services))
	for _, svc := range services {
		nns, err := Namenodes(conf, svc)
		if err != nil {
			return nil, err
		}
		result[svc] = nns
	}
	return result, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
