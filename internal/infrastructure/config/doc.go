// Package config handles loading and validating Gray Logic Autopilot configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The show graph the host builds on startup is described in the same file
// under the "show" key; the autopilot library (which parameters are
// automated) lives in its own file referenced by autopilot.library_file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Autopilot.LibraryFile)
package config
