// Package config provides centralized configuration management for the
// admissions dashboard.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//  1. Default values (Default)
//  2. A YAML file: --config, ADM_CONFIG, ./config.yaml or ./configs/config.yaml
//  3. Environment variables (highest priority)
//
// # Environment Variables
//
// Variables follow the pattern ADM_<SECTION>_<FIELD>:
//
//	ADM_SERVER_PORT=8080
//	ADM_DATA_INPUT_PATH=/srv/admissions/admission_results.csv
//	ADM_DATA_SHEET=2024
//	ADM_LOGGING_LEVEL=debug
//	ADM_SECURITY_ALLOWED_ORIGINS=http://localhost:3000,http://localhost:8080
//	ADM_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Config File
//
//	server:
//	  port: 8080
//	  request_timeout: 30s
//	data:
//	  input_path: admission_results.csv
//	logging:
//	  level: info
//	  output: both
//	  file_path: logs/app.log
//
// A relative data.input_path in a config file is resolved against the file's
// directory when it does not exist relative to the working directory.
package config
