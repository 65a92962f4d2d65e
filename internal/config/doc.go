// Package config handles configuration loading and merging for rollup.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--max-children, --order-by, --format, --theme, etc.)
//  2. Environment variables (ROLLUP_MAX_CHILDREN, ROLLUP_LOG_LEVEL, ...)
//  3. YAML config file (.rollup.yaml in the working directory, else
//     <user config dir>/rollup/.rollup.yaml, or the file named by --config)
//  4. Hardcoded defaults
//
// When a higher-priority source sets a value, it overrides any lower-priority values.
//
// # Key Configuration Options
//
//   - max_children: breadth cap applied at every level and to leaf items
//   - order_by: node order, e.g. "failed" or "duration:asc,name"
//   - test_tie_break / problem_tie_break: which leaf items survive the cap
//   - split_by_build: add a build level under each build configuration
//   - group_parallel: fold virtual (parallel shard) builds into their aggregating build
//   - format: auto, terminal, llm or json
//
// # Environment Variables
//
// Every key can be set as ROLLUP_<KEY> with dots replaced by underscores,
// for example ROLLUP_SERVER_ADDR=:9090.
package config
