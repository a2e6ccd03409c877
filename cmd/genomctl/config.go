package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"genom/internal/problem"
)

// loadRunConfig reads a YAML or JSON run config on top of the defaults.
func loadRunConfig(path string) (problem.RunConfig, error) {
	cfg := problem.DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// runFlags binds the run config flags. Only flags set on the command line
// override values loaded from a config file.
type runFlags struct {
	fs  *pflag.FlagSet
	cfg problem.RunConfig
}

func bindRunFlags(fs *pflag.FlagSet) *runFlags {
	f := &runFlags{fs: fs}
	def := problem.DefaultRunConfig()
	fs.StringVar(&f.cfg.Problem, "problem", def.Problem, "problem to evolve")
	fs.IntVar(&f.cfg.PopulationSize, "pop", def.PopulationSize, "population size")
	fs.IntVar(&f.cfg.Generations, "gens", def.Generations, "generations to evolve")
	fs.Int64Var(&f.cfg.Seed, "seed", def.Seed, "random seed")
	fs.IntVar(&f.cfg.Length, "length", def.Length, "chromosome length (0 for the problem default)")
	fs.StringVar(&f.cfg.Target, "target", def.Target, "target phrase for the word problem")
	fs.StringVar(&f.cfg.SurvivorSelector, "survivors", def.SurvivorSelector, "survivor selector spec")
	fs.StringVar(&f.cfg.OffspringSelector, "offspring", def.OffspringSelector, "offspring selector spec")
	fs.Float64Var(&f.cfg.OffspringFraction, "offspring-fraction", def.OffspringFraction, "fraction of each generation bred as offspring")
	fs.Float64Var(&f.cfg.MutationProbability, "mutation", def.MutationProbability, "mutation probability")
	fs.Float64Var(&f.cfg.CrossoverProbability, "crossover", def.CrossoverProbability, "crossover probability")
	fs.Int64Var(&f.cfg.MaxPhenotypeAge, "max-age", def.MaxPhenotypeAge, "maximum phenotype age in generations (0 for unlimited)")
	fs.StringVar(&f.cfg.Postprocessor, "postprocessor", def.Postprocessor, "fitness postprocessor: none|size-proportional")
	fs.IntVar(&f.cfg.Workers, "workers", def.Workers, "parallel fitness evaluations")
	return f
}

// apply copies every changed flag onto cfg.
func (f *runFlags) apply(cfg *problem.RunConfig) {
	set := map[string]func(){
		"problem":            func() { cfg.Problem = f.cfg.Problem },
		"pop":                func() { cfg.PopulationSize = f.cfg.PopulationSize },
		"gens":               func() { cfg.Generations = f.cfg.Generations },
		"seed":               func() { cfg.Seed = f.cfg.Seed },
		"length":             func() { cfg.Length = f.cfg.Length },
		"target":             func() { cfg.Target = f.cfg.Target },
		"survivors":          func() { cfg.SurvivorSelector = f.cfg.SurvivorSelector },
		"offspring":          func() { cfg.OffspringSelector = f.cfg.OffspringSelector },
		"offspring-fraction": func() { cfg.OffspringFraction = f.cfg.OffspringFraction },
		"mutation":           func() { cfg.MutationProbability = f.cfg.MutationProbability },
		"crossover":          func() { cfg.CrossoverProbability = f.cfg.CrossoverProbability },
		"max-age":            func() { cfg.MaxPhenotypeAge = f.cfg.MaxPhenotypeAge },
		"postprocessor":      func() { cfg.Postprocessor = f.cfg.Postprocessor },
		"workers":            func() { cfg.Workers = f.cfg.Workers },
	}
	f.fs.Visit(func(fl *pflag.Flag) {
		if fn, ok := set[fl.Name]; ok {
			fn()
		}
	})
}

// resolve returns the config file merged with the changed flags, or the
// flag values alone without a config file.
func (f *runFlags) resolve(configPath string) (problem.RunConfig, error) {
	if configPath == "" {
		return f.cfg, nil
	}
	cfg, err := loadRunConfig(configPath)
	if err != nil {
		return problem.RunConfig{}, err
	}
	f.apply(&cfg)
	return cfg, nil
}
