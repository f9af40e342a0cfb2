package config

// optionsFile is the shape of strata.yaml.
type optionsFile struct {
	Entries     []string             `mapstructure:"entries"`
	Mode        string               `mapstructure:"mode"`
	Parallelism int                  `mapstructure:"parallelism"`
	Targets     map[string]targetDTO `mapstructure:"targets"`
	Cache       cacheDTO             `mapstructure:"cache"`
	Workers     workersDTO           `mapstructure:"workers"`
	Log         logDTO               `mapstructure:"log"`
}

type targetDTO struct {
	Context      string            `mapstructure:"context"`
	OutputFormat string            `mapstructure:"output_format"`
	DistDir      string            `mapstructure:"dist_dir"`
	Engines      map[string]string `mapstructure:"engines"`
	SourceMap    bool              `mapstructure:"source_map"`
	Library      bool              `mapstructure:"library"`
}

type cacheDTO struct {
	Dir           string `mapstructure:"dir"`
	BlobThreshold int    `mapstructure:"blob_threshold"`
	Compression   string `mapstructure:"compression"`
	Disabled      bool   `mapstructure:"disabled"`
}

type workersDTO struct {
	Count int      `mapstructure:"count"`
	Mode  string   `mapstructure:"mode"`
	Addrs []string `mapstructure:"addrs"`
}

type logDTO struct {
	Format string `mapstructure:"format"`
}
