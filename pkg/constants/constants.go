// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import (
	"time"
)

const (
	DefaultPerms755    = 0o755
	WriteReadReadPerms = 0o644

	BaseDirName = ".pop"
	LogDir      = "logs"
	LogName     = "pop"
	LogFileName = LogName + ".log"

	DefaultConfigFileName = "config"
	DefaultConfigFileType = "json"
	EnvPrefix             = "POP"

	MaxLogFileSize   = 4
	MaxNumOfLogFiles = 5
	RetainOldFiles   = 0 // retain all old log files

	// deployment defaults, aligned with substrate-contracts-node
	DefaultNodeURL     = "ws://localhost:9944"
	DefaultConstructor = "new"
	DefaultValue       = "0"
	DefaultSS58Prefix  = 42

	DeployTimeout = 5 * time.Minute

	// ink! build layout
	CargoManifestFileName = "Cargo.toml"
	InkTargetDir          = "target/ink"
	ContractBundleExt     = ".contract"
	MinInkVersion         = "v4.0.0"

	// config keys, also bound to POP_<KEY> env vars
	ConfigURL       = "url"
	ConfigSecretURI = "suri"
	ConfigTimeout   = "timeout"

	SkipEnvFlag = "skip-env"
)
