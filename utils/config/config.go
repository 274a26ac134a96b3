// Package config holds the options shared by the MOV and 3GP wrappers.
package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimescale = 600
	DefaultFrameRate = 15
	DefaultQuality   = 75
)

// Options controls encode and decode in the format wrappers.
// MaxWidth/MaxHeight of 0 disable downscaling.
type Options struct {
	Brand     string  `yaml:"brand"`
	FrameRate float64 `yaml:"frame_rate"`
	Timescale uint32  `yaml:"timescale"`
	MaxWidth  int     `yaml:"max_width"`
	MaxHeight int     `yaml:"max_height"`
	Quality   int     `yaml:"quality"`
	Workers   int     `yaml:"workers"`
}

// Default returns options with every field set to a usable value.
func Default() Options {
	return Options{
		FrameRate: DefaultFrameRate,
		Timescale: DefaultTimescale,
		Quality:   DefaultQuality,
		Workers:   1,
	}
}

// Load overlays the keys present in a YAML document onto defaults.
func Load(data []byte, defaults Options) (opts Options, err error) {
	opts = defaults
	if err = yaml.Unmarshal(data, &opts); err != nil {
		return defaults, fmt.Errorf("config: %w", err)
	}
	if err = opts.Validate(); err != nil {
		return defaults, err
	}
	return opts, nil
}

// Validate rejects values the encoders cannot work with.
func (o Options) Validate() error {
	var errs []error
	if o.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame_rate must be positive, got %v", o.FrameRate))
	}
	if o.Timescale == 0 {
		errs = append(errs, errors.New("timescale must be positive"))
	}
	if o.Quality < 1 || o.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be in 1..100, got %d", o.Quality))
	}
	if o.MaxWidth < 0 || o.MaxHeight < 0 {
		errs = append(errs, fmt.Errorf("max dimensions must not be negative, got %dx%d", o.MaxWidth, o.MaxHeight))
	}
	if o.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", o.Workers))
	}
	if len(o.Brand) > 4 {
		errs = append(errs, fmt.Errorf("brand %q longer than 4 bytes", o.Brand))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
