// Package config loads the client configuration from a YAML or TOML file.
//
// References of the form ${VAR} are expanded from the environment before
// decoding and a missing variable is an error; $$ escapes a literal dollar.
// Unset fields keep the values from Default.
//
//	api:
//	  base_url: https://${EMS_HOST}/api
//	  tenant_host: lagos.ems.example.org
//	  timeout: 30s
//	session:
//	  path: ${HOME}/.config/ems/local.json
//	cache:
//	  default: {dedupe: true}
//	  features:
//	    results: {capacity: 500, ttl: 2m}
package config
