// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
This file bridges the build system and the runtime logic. The clinical
profile catalog YAML is baked into the compiled binary with the Go embed
package, so every service and the CLI ship with an identical catalog and
no runtime file dependency.
*/

package catalog

import (
	_ "embed"
)

// ClinicalProfiles holds the raw bytes of 'clinical_profiles.yaml'.
//
// Pass these bytes directly to yaml.Unmarshal, or through
// profile_engine.NewEngine which also validates and indexes them.
//
//go:embed clinical_profiles.yaml
var ClinicalProfiles []byte
