// Package paths holds the filesystem locations wincmd uses and the rules
// for resolving cd arguments against the working directory.
//
// # Locations
//
//	<user config dir>/wincmd/config.toml   default config file
//	<temp dir>/wincmd.log                  default log file
//
// # Usage
//
//	target, err := paths.Resolve(cwd, "My Documents  ")
//	// cwd/My Documents
package paths
