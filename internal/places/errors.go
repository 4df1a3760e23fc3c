/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package places

import "errors"

// ErrPlaceNotFound is returned when the directory has no record for an ID.
var ErrPlaceNotFound = errors.New("place not found")
