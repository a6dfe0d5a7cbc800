// Package config loads the generator settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/daedaleanai/uvmgen/llm"
	"github.com/daedaleanai/uvmgen/log"
	"github.com/daedaleanai/uvmgen/naming"
	"github.com/daedaleanai/uvmgen/netrc"
)

const (
	settingsName    = "settings"
	uvcMappingFile  = "uvc_mapping.yaml"
	envPrefix       = "UVMGEN"
	configDirEnvVar = "UVMGEN_CONFIG_DIR"
)

type LLM struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	Concurrency int           `mapstructure:"concurrency"`
}

type Output struct {
	BaseDir string `mapstructure:"base_dir"`
}

type Paths struct {
	Examples   string `mapstructure:"examples"`
	UVCLib     string `mapstructure:"uvc_lib"`
	UVCMapping string `mapstructure:"uvc_mapping"`
}

type Generation struct {
	Scoreboard   bool   `mapstructure:"scoreboard"`
	Validate     bool   `mapstructure:"validate"`
	SkipExisting bool   `mapstructure:"skip_existing"`
	GitSnapshot  bool   `mapstructure:"git_snapshot"`
	PromptDir    string `mapstructure:"prompt_dir"`
}

// Settings is the content of settings.yaml after defaults and environment
// overrides have been applied.
type Settings struct {
	LLM        LLM            `mapstructure:"llm"`
	Output     Output         `mapstructure:"output"`
	Paths      Paths          `mapstructure:"paths"`
	Naming     naming.Options `mapstructure:"naming"`
	Generation Generation     `mapstructure:"generation"`

	// Dir is the directory settings were looked up in.
	Dir string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", llm.ProviderAnthropic)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", llm.DefaultMaxTokens)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.retries", llm.DefaultRetries)
	v.SetDefault("llm.base_delay", llm.DefaultBaseDelay)
	v.SetDefault("llm.max_delay", llm.DefaultMaxDelay)
	v.SetDefault("llm.min_interval", time.Duration(0))
	v.SetDefault("llm.concurrency", 2)

	v.SetDefault("output.base_dir", "output")

	v.SetDefault("paths.examples", "")
	v.SetDefault("paths.uvc_lib", "")
	v.SetDefault("paths.uvc_mapping", "")

	v.SetDefault("naming.prefix", "")
	v.SetDefault("naming.env_class", "")
	v.SetDefault("naming.vseqr_class", "")
	v.SetDefault("naming.scoreboard_class", "")
	v.SetDefault("naming.interface_name", "")
	v.SetDefault("naming.package_name", "")

	v.SetDefault("generation.scoreboard", true)
	v.SetDefault("generation.validate", true)
	v.SetDefault("generation.skip_existing", false)
	v.SetDefault("generation.git_snapshot", false)
	v.SetDefault("generation.prompt_dir", "")
}

// Dir locates the configuration directory: $UVMGEN_CONFIG_DIR, then
// $XDG_CONFIG_HOME/uvmgen, then ~/.config/uvmgen.
func Dir() (string, error) {
	if dir, ok := os.LookupEnv(configDirEnvVar); ok && dir != "" {
		return ExpandPath(dir), nil
	}
	if xdgConfigHome, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "uvmgen"), nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("unable to locate the configuration directory: %w", err)
	}
	return filepath.Join(home, ".config", "uvmgen"), nil
}

// Load reads settings.yaml from `dir`, or from Dir() when `dir` is empty. A
// missing settings file is not an error.
func Load(dir string) (Settings, error) {
	if dir == "" {
		var err error
		if dir, err = Dir(); err != nil {
			log.Debug("%v. Using default settings\n", err)
		}
	}
	dir = ExpandPath(dir)

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(settingsName)
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read settings in %s: %w", dir, err)
		}
		log.Debug("No settings file in `%s`. Using default settings\n", dir)
	} else {
		log.Debug("Loaded settings from `%s`\n", v.ConfigFileUsed())
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	settings.Dir = dir
	settings.Output.BaseDir = ExpandPath(settings.Output.BaseDir)
	settings.Paths.Examples = ExpandPath(settings.Paths.Examples)
	settings.Paths.UVCLib = ExpandPath(settings.Paths.UVCLib)
	settings.Paths.UVCMapping = ExpandPath(settings.Paths.UVCMapping)
	settings.Generation.PromptDir = ExpandPath(settings.Generation.PromptDir)

	log.Debug("Running with settings: %+v\n", settings)
	return settings, nil
}

// UVCMappingPath is the configured mapping file, or uvc_mapping.yaml in the
// settings directory.
func (s Settings) UVCMappingPath() string {
	if s.Paths.UVCMapping != "" {
		return s.Paths.UVCMapping
	}
	if s.Dir == "" {
		return ""
	}
	return filepath.Join(s.Dir, uvcMappingFile)
}

// ExpandPath resolves a leading `~` in `path`.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

var apiKeyEnvVars = map[string]string{
	llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
	llm.ProviderOpenAI:    "OPENAI_API_KEY",
}

var defaultURLs = map[string]string{
	llm.ProviderAnthropic: llm.DefaultAnthropicURL,
	llm.ProviderOpenAI:    llm.DefaultOpenAIURL,
}

// APIKey resolves the service key for the configured provider: `flag` if
// set, then the provider's environment variable, then the password of the
// provider host's entry in `credentials`.
func (l LLM) APIKey(flag string, credentials *netrc.Netrc) string {
	if flag != "" {
		return flag
	}
	provider := strings.ToLower(l.Provider)
	if key := os.Getenv(apiKeyEnvVars[provider]); key != "" {
		return key
	}
	if credentials == nil {
		return ""
	}
	url := l.BaseURL
	if url == "" {
		url = defaultURLs[provider]
	}
	if auth := credentials.GetAuthForUrl(url); auth != nil {
		log.Debug("Using API key from netrc for %s\n", url)
		return auth.Password
	}
	return ""
}

// ClientConfig converts the settings into a client configuration.
func (l LLM) ClientConfig(apiKey string) llm.Config {
	return llm.Config{
		Provider:    l.Provider,
		APIKey:      apiKey,
		Model:       l.Model,
		BaseURL:     l.BaseURL,
		MaxTokens:   l.MaxTokens,
		Temperature: l.Temperature,
		Timeout:     l.Timeout,
		MinInterval: l.MinInterval,
	}
}
