// Package config loads wiregraph settings.
//
// Sources, lowest priority first:
//
//  1. Defaults in code (Default)
//  2. A YAML file (unknown keys are rejected)
//  3. WIREGRAPH_* environment variables
//
// The merged result is validated with struct tags before use. Configuration
// is passed explicitly to constructors; the package holds no globals besides
// the validator instance.
//
// Example file:
//
//	history:
//	  max_size: 200
//	types:
//	  wildcards: ["*", "Any"]
//	  aliases:
//	    - [int, Index, integer]
//	    - [str, string]
//	workflow:
//	  start_type: start_flow
//	  end_type: end_flow
//	log:
//	  level: debug
//	  format: json
package config
