// Package hdfs implements the provider contract on a remote HDFS cluster
// through the native Go wire client.
package hdfs

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/colinmarc/hdfs/v2"
	"github.com/colinmarc/hdfs/v2/hadoopconf"
	krb "github.com/jcmturner/gokrb5/v8/client"
	krbconfig "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/clusterinfo"
	"github.com/marmos91/dfsclient/pkg/provider"
)

const (
	// DefaultNamenodePort is the HDFS namenode RPC port.
	DefaultNamenodePort = 8020

	defaultBlockSize   int64 = 128 << 20
	defaultReplication       = 3
	defaultKrb5Config        = "/etc/krb5.conf"
)

// Dialer connects to HDFS clusters.
type Dialer struct {
	// Getenv reads the environment, os.Getenv when nil.
	Getenv func(string) string
}

var _ provider.Dialer = (*Dialer)(nil)

// NewDialer returns a Dialer reading the process environment.
func NewDialer() *Dialer {
	return &Dialer{Getenv: os.Getenv}
}

func (d *Dialer) getenv(key string) string {
	if d.Getenv == nil {
		return os.Getenv(key)
	}
	return d.Getenv(key)
}

// Dial loads the Hadoop configuration at params.ConfigPath, resolves the
// namenode addresses and opens a client.
func (d *Dialer) Dial(ctx context.Context, params provider.Params) (provider.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params = params.WithDefaults()

	conf, err := clusterinfo.Load(params.ConfigPath)
	if err != nil {
		return nil, err
	}

	addrs, err := ResolveAddresses(conf, params.Service, params.Port)
	if err != nil {
		return nil, err
	}

	opts := hdfs.ClientOptionsFromConf(conf)
	opts.Addresses = addrs
	opts.User = params.User
	opts.NamenodeDialFunc = (&net.Dialer{}).DialContext

	if params.KerbTicketCachePath != "" {
		kc, err := d.kerberosClient(params.KerbTicketCachePath)
		if err != nil {
			return nil, err
		}
		opts.KerberosClient = kc
		if opts.KerberosServicePrincipleName == "" {
			opts.KerberosServicePrincipleName = ServicePrincipal(conf["dfs.namenode.kerberos.principal"])
		}
	}
	if opts.User == "" && opts.KerberosClient == nil {
		opts.User = currentUser()
	}

	if params.AuthToken != "" {
		logger.Warn("delegation tokens are not supported by the hdfs wire client; ignoring auth token", logger.KeyService, params.Service)
	}

	client, err := hdfs.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", strings.Join(addrs, ","), mapError(err))
	}

	blockSize, err := ParseSize(conf["dfs.blocksize"], defaultBlockSize)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	replication, err := strconv.Atoi(firstNonEmpty(conf["dfs.replication"], strconv.Itoa(defaultReplication)))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: dfs.replication: %v", provider.ErrInvalidInput, err)
	}

	logger.Debug("hdfs client connected", logger.KeyService, params.Service, "namenodes", addrs, "user", client.User())
	return &Connection{
		client:      client,
		blockSize:   blockSize,
		replication: int16(replication),
		wd:          "/user/" + client.User(),
	}, nil
}

// ResolveAddresses picks the namenodes to contact:
//
//   - "default": the filesystem named by fs.defaultFS or the HA config;
//   - an explicit port: service:port;
//   - an HA nameservice: its namenodes;
//   - otherwise service on the default namenode port.
func ResolveAddresses(conf hadoopconf.HadoopConf, service string, port int) ([]string, error) {
	if service == provider.DefaultService || service == "" {
		addrs := hdfs.ClientOptionsFromConf(conf).Addresses
		if len(addrs) == 0 {
			return nil, fmt.Errorf("%w: no namenode configured for the default filesystem", provider.ErrInvalidInput)
		}
		return addrs, nil
	}

	if port > 0 {
		return []string{net.JoinHostPort(service, strconv.Itoa(port))}, nil
	}

	nns, err := clusterinfo.Namenodes(conf, service)
	if err != nil {
		return nil, err
	}
	if len(nns) > 0 {
		return clusterinfo.RPCAddresses(nns), nil
	}

	return []string{net.JoinHostPort(service, strconv.Itoa(DefaultNamenodePort))}, nil
}

// ServicePrincipal strips the realm from a Kerberos principal:
// "nn/_HOST@EXAMPLE.COM" becomes "nn/_HOST".
func ServicePrincipal(principal string) string {
	if i := strings.IndexByte(principal, '@'); i >= 0 {
		return principal[:i]
	}
	return principal
}

// ParseSize reads a Hadoop size value ("134217728", "128m", "1g"). An
// empty value returns def.
func ParseSize(v string, def int64) (int64, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return def, nil
	}

	mult := int64(1)
	switch v[len(v)-1] {
	case 'k':
		mult = 1 << 10
	case 'm':
		mult = 1 << 20
	case 'g':
		mult = 1 << 30
	case 't':
		mult = 1 << 40
	case 'p':
		mult = 1 << 50
	}
	if mult > 1 {
		v = v[:len(v)-1]
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid size %q", provider.ErrInvalidInput, v)
	}
	return n * mult, nil
}

func (d *Dialer) kerberosClient(ccachePath string) (*krb.Client, error) {
	cfgPath := firstNonEmpty(d.getenv("KRB5_CONFIG"), defaultKrb5Config)
	cfg, err := krbconfig.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load krb5 config %s: %w", cfgPath, err)
	}

	ccache, err := credentials.LoadCCache(ccachePath)
	if err != nil {
		return nil, fmt.Errorf("load ticket cache %s: %w", ccachePath, err)
	}

	client, err := krb.NewFromCCache(ccache, cfg, krb.DisablePAFXFAST(true))
	if err != nil {
		return nil, fmt.Errorf("kerberos client from %s: %w", ccachePath, err)
	}
	return client, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
