package sale

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

type Configuration struct {
	Sale struct {
		TotalCap            uint64 `toml:"total-cap"`
		PerHolderCap        uint64 `toml:"per-holder-cap"`
		PresaleCap          uint64 `toml:"presale-cap"`
		PresalePrice        string `toml:"presale-price"`
		PublicPrice         string `toml:"public-price"`
		PresaleStart        int64  `toml:"presale-start"`
		AllowlistCommitment string `toml:"allowlist-commitment"`
		BaseURI             string `toml:"base-uri"`
	} `toml:"sale"`
	Auth struct {
		Owner   string `toml:"owner"`
		Staking string `toml:"staking"`
		Manager string `toml:"manager"`
	} `toml:"auth"`
	Trait struct {
		Total uint64 `toml:"total"`
	} `toml:"trait"`
	API struct {
		Listen string `toml:"listen"`
	} `toml:"api"`
}

func Setup(path string) (*Configuration, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Configuration
	err = toml.Unmarshal(f, &conf)
	if err != nil {
		return nil, err
	}
	if conf.Auth.Owner == "" || conf.Auth.Manager == "" {
		return nil, fmt.Errorf("incomplete auth configuration %s", path)
	}
	return &conf, nil
}
