/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/fatih/structs"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/toothbrush/content-replicate/internal/logging"
	"gopkg.in/yaml.v2"
)

const defaultConfig = "~/.config/content-replicate.yaml"

var (
	// Store the result of binding cobra flags
	Config       string
	ConfigActual string
	Debug        bool

	// Command to run to retrieve the repository password or token
	AuthTokenCmd []string

	AuthUsername  string
	SlingInstance string
	SlingRoot     string
	SlingDepth    int
	WithVCR       bool
	ContentFile   string
	StorePath     string
	StateDB       string
	TargetName    string

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "content-replicate",
	Short: "Replicate a content tree to a static copy on disk",
	Long: `
Publish pages and assets from a content repository into a local directory, keep track of what has
been published, and take individual pages down again.  Content comes either from a YAML tree
(--content) or from a Sling-based repository over HTTP (--sling-instance).
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("content-replicate: failed to initialise config: %w", err)
		}
		if err := setupLogger(); err != nil {
			return fmt.Errorf("content-replicate: failed to set up logging: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogger()
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: "+defaultConfig+", respects CONTENT_REPLICATE_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringVar(&ContentFile, "content", "", "YAML file describing the content tree")
	rootCmd.PersistentFlags().StringVar(&SlingInstance, "sling-instance", "", "base URL of the content repository, e.g. http://localhost:8080")
	rootCmd.PersistentFlags().StringVar(&SlingRoot, "sling-root", "/content", "subtree to load from the content repository")
	rootCmd.PersistentFlags().IntVar(&SlingDepth, "sling-depth", -1, "how many levels to load below --sling-root, -1 for all")
	rootCmd.PersistentFlags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to cache repository responses")
	rootCmd.PersistentFlags().StringVar(&AuthUsername, "auth-username", "", "repository username")
	rootCmd.PersistentFlags().StringSliceVar(&AuthTokenCmd, "auth-token-cmd", []string{}, "shell command to retrieve the repository password or token")
	rootCmd.PersistentFlags().StringVar(&StorePath, "store", "", "directory the static copy is written to")
	rootCmd.PersistentFlags().StringVar(&StateDB, "state-db", "", "SQLite file recording publication state (default: in memory, lost on exit)")
	rootCmd.PersistentFlags().StringVar(&TargetName, "target", "", "replication target to use, e.g. localFS")
}

func initializeConfig(cmd *cobra.Command) error {
	explicit := true
	if Config == "" {
		// Did the user provide an ENV?
		envConfig := os.Getenv("CONTENT_REPLICATE_CONFIG")
		if envConfig != "" {
			Config = envConfig
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = defaultConfig
			explicit = false
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("content-replicate: unable to expand homedir: %w", err)
	}
	ConfigActual = config

	ParsedConfig = YamlConfig{}
	if _, err := os.Stat(ConfigActual); errors.Is(err, os.ErrNotExist) {
		if explicit {
			fmt.Fprintf(os.Stderr, "Couldn't read config file %s, does it exist?\n", ConfigActual)
			return fmt.Errorf("content-replicate: specified config file does not exist: %w", err)
		}
		// flags alone are enough
		return validateConfig(ParsedConfig)
	}

	yamlFile, err := os.ReadFile(ConfigActual)
	if err != nil {
		return fmt.Errorf("content-replicate: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a key we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return fmt.Errorf("content-replicate: issue parsing config file: %w", err)
	}

	if err := validateConfig(ParsedConfig); err != nil {
		return err
	}

	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("content-replicate: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	Debug        *bool `yaml:"debug"`
	WithVCR      *bool `yaml:"with-vcr"`
	Recursive    *bool `yaml:"recursive"`
	OnlyModified *bool `yaml:"only-modified"`
	Workers      *int  `yaml:"workers" validate:"omitempty,gte=1,lte=64"`
	SlingDepth   *int  `yaml:"sling-depth" validate:"omitempty,gte=-1"`

	Content       string   `yaml:"content"`
	SlingInstance string   `yaml:"sling-instance" validate:"omitempty,url"`
	SlingRoot     string   `yaml:"sling-root" validate:"omitempty,startswith=/"`
	AuthUsername  string   `yaml:"auth-username"`
	AuthTokenCmd  []string `yaml:"auth-token-cmd"`
	Store         string   `yaml:"store"`
	StateDB       string   `yaml:"state-db"`
	Target        string   `yaml:"target"`
	Exclude       []string `yaml:"exclude" validate:"dive,startswith=/"`
	Marked        string   `yaml:"marked"`

	Sitemap SitemapConfig  `yaml:"sitemap"`
	Logging logging.Config `yaml:"logging"`
}

type SitemapConfig struct {
	Pattern      string           `yaml:"pattern"`
	HideProperty string           `yaml:"hide-property"`
	Externalize  []MappingConfig  `yaml:"externalize" validate:"dive"`
	Properties   []PropertyConfig `yaml:"properties" validate:"dive"`
}

type MappingConfig struct {
	Prefix  string `yaml:"prefix" validate:"required,startswith=/"`
	BaseURL string `yaml:"base-url" validate:"required,url"`
}

// PropertyConfig adds one sitemap property, taken from exactly one of JSONPath, Summary or Value.
type PropertyConfig struct {
	Name      string `yaml:"name" validate:"required"`
	JSONPath  string `yaml:"jsonpath" validate:"required_without_all=Summary Value"`
	Summary   string `yaml:"summary" validate:"required_without_all=JSONPath Value"`
	MaxLength int    `yaml:"max-length" validate:"gte=0"`
	Format    string `yaml:"summary-format" validate:"omitempty,oneof=text markdown"`
	Value     string `yaml:"value" validate:"required_without_all=JSONPath Summary"`
}

func validateConfig(cfg YamlConfig) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("content-replicate: invalid config value for %s (rule '%s'): %w", e.Namespace(), e.Tag(), err)
		}
		return fmt.Errorf("content-replicate: invalid config: %w", err)
	}
	return nil
}

// Bind each cobra flag to its value from the config file, unless it was given on the command line.
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("content-replicate: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// not every command has every flag, and nested sections never map to one
			continue
		}
		if cmd.Flags().Changed(key) {
			continue
		}
		switch field.Kind() {
		case reflect.Ptr:
			switch p := field.Value().(type) {
			case *bool:
				if p != nil {
					cmd.Flags().Set(key, fmt.Sprintf("%v", *p))
				}
			case *int:
				if p != nil {
					cmd.Flags().Set(key, fmt.Sprintf("%d", *p))
				}
			default:
				return fmt.Errorf("content-replicate: found unrecognised field: %s", field.Name())
			}

		case reflect.String:
			s, ok := field.Value().(string)
			if !ok {
				return fmt.Errorf("content-replicate: found unrecognised field: %s", field.Name())
			}
			if s != "" {
				cmd.Flags().Set(key, s)
			}

		case reflect.Slice:
			ss, ok := field.Value().([]string)
			if !ok {
				return fmt.Errorf("content-replicate: found unrecognised field: %s", field.Name())
			}
			for _, s := range ss {
				// yes, repeatedly calling Set() appends to the slice...
				cmd.Flags().Set(key, s)
			}

		default:
			return fmt.Errorf("content-replicate: found unrecognised field: %s", field.Name())
		}
	}

	return nil
}

// Execute runs the command line under ctx.  This is called by main.main().
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("content-replicate: execution error: %w", err)
	}

	return nil
}
