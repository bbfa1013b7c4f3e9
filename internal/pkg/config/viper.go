package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. APP_REDIS_URL for redis.url.
const EnvPrefix = "APP"

// Viper implements Config on top of spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at pathFile and watches it for changes. A .env
// file next to the working directory is loaded first when present, and
// APP_* environment variables override file values.
func NewViper(pathFile string) (*Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	bindEnv(v)

	filename := path.Base(pathFile)
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filename, path.Ext(filename)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", pathFile, "op", e.Op.String(), "error", err)
			return
		}
		slog.Info("config reloaded", "path", pathFile)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes builds a Config from an in-memory document of the given
// type ("yaml", "json", ...).
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config: type is required")
	}

	v := viper.New()
	bindEnv(v)
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func (vc *Viper) GetInt(key string) int       { return vc.v.GetInt(key) }
func (vc *Viper) GetInt32(key string) int32   { return vc.v.GetInt32(key) }
func (vc *Viper) GetInt64(key string) int64   { return vc.v.GetInt64(key) }
func (vc *Viper) GetUint(key string) uint     { return vc.v.GetUint(key) }
func (vc *Viper) GetUint16(key string) uint16 { return vc.v.GetUint16(key) }
func (vc *Viper) GetUint32(key string) uint32 { return vc.v.GetUint32(key) }
func (vc *Viper) GetUint64(key string) uint64 { return vc.v.GetUint64(key) }
func (vc *Viper) GetBool(key string) bool     { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string { return vc.v.GetString(key) }

func (vc *Viper) GetFloat32(key string) float32 { return float32(vc.v.GetFloat64(key)) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

func (vc *Viper) GetSecond(key string) time.Duration { return vc.unit(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.unit(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration   { return vc.unit(key, time.Hour) }
func (vc *Viper) GetDay(key string) time.Duration    { return vc.unit(key, 24*time.Hour) }

func (vc *Viper) unit(key string, d time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * d
}

func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

func (vc *Viper) GetArray(key string) []string {
	var out []string
	for item := range strings.SplitSeq(vc.v.GetString(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (vc *Viper) GetMap(key string) map[string]string {
	m := make(map[string]string)
	for pair := range strings.SplitSeq(vc.v.GetString(key), ",") {
		if k, val, ok := strings.Cut(pair, ":"); ok {
			m[strings.TrimSpace(k)] = strings.TrimSpace(val)
		}
	}
	return m
}

// Close is a no-op; the file watcher lives for the whole process.
func (vc *Viper) Close() error {
	return nil
}
