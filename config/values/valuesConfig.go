package values

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SyncValues carries the tuning knobs of the sync engine. Durations are kept
// as plain integers so the YAML stays unit-explicit.
type SyncValues struct {
	ChunkSize        int `yaml:"chunk-size"`
	FlushEvery       int `yaml:"flush-every"`
	ChunkDeadlineSec int `yaml:"chunk-deadline-sec"`
	ChunkPauseMs     int `yaml:"chunk-pause-ms"`
	RequestTimeoutSec int `yaml:"request-timeout-sec"`
	RetryAttempts    int `yaml:"retry-attempts"`
	RetryBaseDelayMs int `yaml:"retry-base-delay-ms"`
	CacheTTLSec      int `yaml:"cache-ttl-sec"`
	ScheduleEveryMin int `yaml:"schedule-every-min"`
}

func (v *SyncValues) ApplyDefaults() {
	if v.ChunkSize <= 0 {
		v.ChunkSize = 30
	}
	if v.FlushEvery <= 0 {
		v.FlushEvery = 10
	}
	if v.ChunkDeadlineSec <= 0 {
		v.ChunkDeadlineSec = 300
	}
	if v.ChunkPauseMs < 0 {
		v.ChunkPauseMs = 0
	}
	if v.RequestTimeoutSec <= 0 {
		v.RequestTimeoutSec = 30
	}
	if v.RetryAttempts <= 0 {
		v.RetryAttempts = 3
	}
	if v.RetryBaseDelayMs <= 0 {
		v.RetryBaseDelayMs = 1000
	}
	if v.CacheTTLSec <= 0 {
		v.CacheTTLSec = 300
	}
}

func (v *SyncValues) ChunkDeadline() time.Duration  { return time.Duration(v.ChunkDeadlineSec) * time.Second }
func (v *SyncValues) ChunkPause() time.Duration     { return time.Duration(v.ChunkPauseMs) * time.Millisecond }
func (v *SyncValues) RequestTimeout() time.Duration { return time.Duration(v.RequestTimeoutSec) * time.Second }
func (v *SyncValues) RetryBaseDelay() time.Duration { return time.Duration(v.RetryBaseDelayMs) * time.Millisecond }
func (v *SyncValues) CacheTTL() time.Duration       { return time.Duration(v.CacheTTLSec) * time.Second }
func (v *SyncValues) ScheduleEvery() time.Duration  { return time.Duration(v.ScheduleEveryMin) * time.Minute }

// CategoryAliases maps scraped category names onto canonical slugs. The map
// encodes catalog knowledge, not logic, so it lives in an external YAML file.
type CategoryAliases struct {
	Aliases map[string]string `yaml:"aliases"`
}

func LoadCategoryAliases(filename string) (*CategoryAliases, error) {
	if filename == "" {
		return &CategoryAliases{Aliases: map[string]string{}}, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	aliases := &CategoryAliases{}
	if err := yaml.Unmarshal(data, aliases); err != nil {
		return nil, err
	}
	if aliases.Aliases == nil {
		aliases.Aliases = map[string]string{}
	}
	return aliases, nil
}

// ScrapedPropKeys is the allow-list of item fields that become parameters.
// The scraped feed carries no parameter identifiers, so the keys are fixed.
var ScrapedPropKeys = []string{
	"color", "material", "length", "diameter", "power_supply",
	"resolution", "connection", "weight", "waterproof",
}

// ScrapedPropNames translates a field key into a display name. Keys outside
// the table fall back to a capitalize-and-replace-underscores rule.
var ScrapedPropNames = map[string]string{
	"color":        "Color",
	"material":     "Material",
	"length":       "Length",
	"diameter":     "Diameter",
	"power_supply": "Power supply",
	"resolution":   "Resolution",
	"connection":   "Connection type",
	"weight":       "Weight",
	"waterproof":   "Waterproof rating",
}
