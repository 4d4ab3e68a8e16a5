package config

import (
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/dfsclient/pkg/provider/hdfs"
)

// ByteSize is a size in bytes that also decodes from Hadoop size strings
// such as "64k", "128m" or "1g".
type ByteSize int64

func (b ByteSize) String() string {
	return strconv.FormatInt(int64(b), 10)
}

// byteSizeHook converts strings into ByteSize values.
func byteSizeHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(ByteSize(0)) || from.Kind() != reflect.String {
			return data, nil
		}
		n, err := hdfs.ParseSize(data.(string), 0)
		if err != nil {
			return nil, err
		}
		return ByteSize(n), nil
	}
}
