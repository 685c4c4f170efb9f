// Package config loads the signing-policy record and CLI-facing settings
// via viper, pared down to what the zone engine's collaborators need.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/dnssigner/zoneengine/zone"
)

// Policy is the on-disk signing configuration record, unmarshalled by
// viper and translated into zone.Policy for the engine.
type Policy struct {
	SOASerial          string `mapstructure:"soa_serial"`
	SigInceptionOffset int64  `mapstructure:"sig_inception_offset"`
	SigJitter          int64  `mapstructure:"sig_jitter"`
	SigValidityDenial  int64  `mapstructure:"sig_validity_denial"`
	PublishCDS         bool   `mapstructure:"publish_cds"`

	NSEC3 *NSEC3Config `mapstructure:"nsec3params"`

	ZoneFile string `mapstructure:"zone_file"`
	LogFile  string `mapstructure:"log_file"`
}

// NSEC3Config is the optional nsec3params block of the policy file.
type NSEC3Config struct {
	Algorithm  uint8  `mapstructure:"algorithm"`
	Flags      uint8  `mapstructure:"flags"`
	Iterations uint16 `mapstructure:"iterations"`
	Salt       string `mapstructure:"salt"`
}

var soaSerialPolicies = map[string]zone.SerialPolicy{
	"unixtime":    zone.SerialUnixtime,
	"counter":     zone.SerialCounter,
	"datecounter": zone.SerialDatecounter,
	"keep":        zone.SerialKeep,
}

// Load reads path (any format viper supports: YAML, JSON, TOML) into a
// Policy, applying viper.AutomaticEnv so environment variables can
// override individual keys.
func Load(path string) (*Policy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var p Policy
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("config: unmarshalling %s: %w", path, err)
	}
	if _, ok := soaSerialPolicies[strings.ToLower(p.SOASerial)]; !ok {
		return nil, fmt.Errorf("config: unknown soa_serial policy %q", p.SOASerial)
	}
	return &p, nil
}

// ToEnginePolicy translates the parsed Policy into the zone.Policy the
// engine consumes, keeping the config package's viper/mapstructure
// dependency out of the zone package entirely.
func (p *Policy) ToEnginePolicy() *zone.Policy {
	ep := &zone.Policy{
		SOASerial:          soaSerialPolicies[strings.ToLower(p.SOASerial)],
		SigInceptionOffset: p.SigInceptionOffset,
		SigJitter:          p.SigJitter,
		SigValidityDenial:  p.SigValidityDenial,
		PublishCDS:         p.PublishCDS,
	}
	if p.NSEC3 != nil {
		ep.NSEC3Params = &zone.NSEC3Params{
			Algorithm:  p.NSEC3.Algorithm,
			Flags:      p.NSEC3.Flags,
			Iterations: p.NSEC3.Iterations,
			Salt:       p.NSEC3.Salt,
		}
	}
	return ep
}
