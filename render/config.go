package render

import (
	"github.com/caarlos0/env/v11"

	"github.com/ardnew/folio/ast"
	"github.com/ardnew/folio/cache"
	"github.com/ardnew/folio/pkg"
)

// Config is the externally configurable part of a [Renderer].
type Config struct {
	Directory  string `env:"DIRECTORY"   envDefault:"templates" json:"directory"   yaml:"directory"`
	FileEnding string `env:"FILE_ENDING" envDefault:".tpl"      json:"file_ending" yaml:"file_ending"`
	Cache      bool   `env:"CACHE"       envDefault:"true"      json:"cache"       yaml:"cache"`
	MaxDepth   int    `env:"MAX_DEPTH"   envDefault:"16"        json:"max_depth"   yaml:"max_depth"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Directory:  "templates",
		FileEnding: DefaultFileEnding,
		Cache:      true,
		MaxDepth:   DefaultMaxDepth,
	}
}

// ConfigFromEnv reads a Config from FOLIO_* variables. A nil environ reads
// the process environment.
func ConfigFromEnv(environ map[string]string) (Config, error) {
	return env.ParseAsWithOptions[Config](env.Options{
		Prefix:      pkg.EnvPrefix,
		Environment: environ,
	})
}

// Options returns the renderer options equivalent to c.
func (c Config) Options() []Option {
	opts := []Option{
		WithDirectory(c.Directory),
		WithFileEnding(c.FileEnding),
		WithMaxDepth(c.MaxDepth),
	}

	if !c.Cache {
		opts = append(opts, WithCache(nil))
	} else {
		opts = append(opts, WithCache(cache.NewMemory()))
	}

	return opts
}

// NewFromConfig returns a Renderer configured by c, then opts.
func NewFromConfig(parser ast.Parser, c Config, opts ...Option) *Renderer {
	return New(parser, append(c.Options(), opts...)...)
}
