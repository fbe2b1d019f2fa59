package config

// ProjectFile represents the structure of the codetask.yaml project file.
type ProjectFile struct {
	Version string              `yaml:"version"`
	Tasks   map[string]*TaskDTO `yaml:"tasks"`
}

// TaskDTO represents a task declaration in the project file.
type TaskDTO struct {
	Parameters []ParameterDTO    `yaml:"parameters"`
	With       map[string]string `yaml:"with"`
	Definition string            `yaml:"definition"`
	// DefinitionFile is read instead of Definition when set. Relative paths
	// are resolved against the project root.
	DefinitionFile string `yaml:"definition_file"`
}

// ParameterDTO represents one declared task parameter.
type ParameterDTO struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Output   bool   `yaml:"output"`
	Required bool   `yaml:"required"`
}

// settingsDTO mirrors domain.Settings for viper decoding.
type settingsDTO struct {
	InstallDir       string `mapstructure:"install_dir"`
	ReferenceDir     string `mapstructure:"reference_dir"`
	ScratchDir       string `mapstructure:"scratch_dir"`
	StoreDir         string `mapstructure:"store_dir"`
	KeepScratch      bool   `mapstructure:"keep_scratch"`
	DebugWait        bool   `mapstructure:"debug_wait"`
	DebugWaitTimeout string `mapstructure:"debug_wait_timeout"`
	LogJSON          bool   `mapstructure:"log_json"`
	GoBinary         string `mapstructure:"go_binary"`
	Jobs             int    `mapstructure:"jobs"`
	Trace            bool   `mapstructure:"trace"`
	Verbose          bool   `mapstructure:"verbose"`
}
