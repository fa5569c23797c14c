package settings

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const EnvPrefix = "ETHERTAP"

// Load reads path (optional) over the defaults, applies ETHERTAP_* overrides
// and validates the result.
func Load(path string) (Settings, error) {
	v := viper.New()
	registerDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(decodeHook())); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// registerDefaults makes every key known to viper so environment variables
// can override keys absent from the file.
func registerDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pattern", d.Log.Pattern)
	v.SetDefault("log.time", d.Log.Time)
	v.SetDefault("log.file.filename", d.Log.File.Filename)
	v.SetDefault("log.file.max_size", d.Log.File.MaxSize)
	v.SetDefault("log.file.max_backups", d.Log.File.MaxBackups)
	v.SetDefault("log.file.max_age", d.Log.File.MaxAge)
	v.SetDefault("log.file.compress", d.Log.File.Compress)

	v.SetDefault("tap.mtu", d.Tap.MTU)
	v.SetDefault("tap.metric", d.Tap.Metric)
	v.SetDefault("tap.name_prefix", d.Tap.NamePrefix)
	v.SetDefault("tap.queue_depth", d.Tap.QueueDepth)
	v.SetDefault("tap.health_interval", d.Tap.HealthInterval)
	v.SetDefault("tap.multicast_interval", d.Tap.MulticastInterval)
	v.SetDefault("tap.open_retry_interval", d.Tap.OpenRetryInterval)
	v.SetDefault("tap.tun_device_path", d.Tap.TunDevicePath)
	v.SetDefault("tap.proc_conf_dir", d.Tap.ProcConfDir)
	v.SetDefault("tap.dev_mcast_path", d.Tap.DevMcastPath)
	v.SetDefault("tap.kext_path", d.Tap.KextPath)
	v.SetDefault("tap.hardware_id", d.Tap.HardwareID)
	v.SetDefault("tap.inf_path", d.Tap.InfPath)
	v.SetDefault("tap.tag_value_name", d.Tap.TagValueName)
	v.SetDefault("tap.provision_retries", d.Tap.ProvisionRetries)
	v.SetDefault("tap.provision_retry_delay", d.Tap.ProvisionRetryDelay)

	v.SetDefault("demarc.udp_ports", d.Demarc.UDPPorts)
	v.SetDefault("demarc.hop_limit", d.Demarc.HopLimit)

	v.SetDefault("resolver.hostnames", d.Resolver.Hostnames)
	v.SetDefault("resolver.refresh_interval", d.Resolver.RefreshInterval)

	// no usable defaults; bound so ETHERTAP_NETWORK_* still applies
	for _, key := range []string{
		"network.network_id",
		"network.mac",
		"network.addresses",
		"network.device_name",
		"network.friendly_name",
		"network.peers",
	} {
		_ = v.BindEnv(key)
	}
}
