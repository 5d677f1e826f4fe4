package tspmip

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	BackendBNB    = "bnb"
	BackendGurobi = "gurobi"
)

type Settings struct {
	// TimeLimit is the global budget in seconds.
	TimeLimit float64 `yaml:"time_limit"`
	Seed      int64   `yaml:"seed"`
	Verbose   bool    `yaml:"verbose"`
	MIPStart  bool    `yaml:"mip_start"`
	Backend   string  `yaml:"backend"`

	ModelFile   string `yaml:"model_file"`
	LogFile     string `yaml:"log_file"`
	MetricsFile string `yaml:"metrics_file"`

	HardFixing     HardFixingSettings     `yaml:"hard_fixing"`
	LocalBranching LocalBranchingSettings `yaml:"local_branching"`
	BNB            BNBSettings            `yaml:"bnb"`
}

type HardFixingSettings struct {
	FixRatio        float64 `yaml:"fix_ratio"`
	SubLimitDivisor float64 `yaml:"sub_limit_divisor"`
}

type LocalBranchingSettings struct {
	K               int     `yaml:"k"`
	KStep           int     `yaml:"k_step"`
	SubLimitDivisor float64 `yaml:"sub_limit_divisor"`
}

type BNBSettings struct {
	NodeLimit int `yaml:"node_limit"`
}

func DefaultSettings() Settings {
	return Settings{
		TimeLimit: 60,
		Seed:      1,
		MIPStart:  true,
		Backend:   BackendBNB,
		ModelFile: "model.lp",
		LogFile:   "",
		HardFixing: HardFixingSettings{
			FixRatio:        0.8,
			SubLimitDivisor: 10,
		},
		LocalBranching: LocalBranchingSettings{
			K:               10,
			KStep:           10,
			SubLimitDivisor: 10,
		},
	}
}

// LoadSettings reads a YAML file over the defaults. An empty path yields the defaults.
func LoadSettings(path string) (Settings, error) {
	set := DefaultSettings()
	if path == "" {
		return set, nil
	}
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return set, errors.Wrapf(err, "reading settings %s", path)
	}
	if err = yaml.Unmarshal(raw, &set); err != nil {
		return set, errors.Wrapf(err, "parsing settings %s", path)
	}
	return set, set.Validate()
}

func (s Settings) Validate() error {
	if s.TimeLimit <= 0 {
		return errors.Errorf("time limit must be positive, got %v", s.TimeLimit)
	}
	if s.Backend != BackendBNB && s.Backend != BackendGurobi {
		return errors.Errorf("unknown backend %q", s.Backend)
	}
	if s.HardFixing.FixRatio <= 0 || s.HardFixing.FixRatio >= 1 {
		return errors.Errorf("fix ratio must be in (0,1), got %v", s.HardFixing.FixRatio)
	}
	if s.HardFixing.SubLimitDivisor < 1 || s.LocalBranching.SubLimitDivisor < 1 {
		return errors.New("sub-limit divisors must be at least 1")
	}
	if s.LocalBranching.K < 1 || s.LocalBranching.KStep < 1 {
		return errors.Errorf("local branching k=%d step=%d must be positive", s.LocalBranching.K, s.LocalBranching.KStep)
	}
	if s.BNB.NodeLimit < 0 {
		return errors.Errorf("node limit must not be negative, got %d", s.BNB.NodeLimit)
	}
	return nil
}

func (s Settings) Limit() time.Duration {
	return time.Duration(s.TimeLimit * float64(time.Second))
}
