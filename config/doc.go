// Package config resolves featureflow settings and the repository table.
//
// Values are layered with clear precedence:
//  1. Command-line flags (highest priority)
//  2. Environment variables (FEATUREFLOW_<KEY>)
//  3. Local config (.featureflow.yaml in the working directory)
//  4. Global config (~/.config/featureflow/config.yaml)
//  5. Built-in defaults (lowest priority)
//
// # Basic Usage
//
//	resolver := config.NewResolver(config.DefaultResolverConfig())
//	resolved := resolver.ResolveWithFlags(map[string]string{"db_path": dbFlag})
//	settings, err := config.Load(resolved)
//
// # Repository Table
//
// Repos maps case-insensitive repository names to filesystem paths. It is
// built once at start-up, from the built-in table or from a YAML file named
// by the repos_file key, and never changes afterwards:
//
//	repos:
//	  gisbot: /app/mnt/repos/gisbot
//	  atlas: /app/mnt/repos/atlas
package config
