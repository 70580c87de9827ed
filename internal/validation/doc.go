// Reelfeed - Adaptive Video Feed Ranking and Media Prefetch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelfeed

// Package validation wraps a shared go-playground/validator instance and
// turns its errors into the API's VALIDATION_ERROR envelope.
//
//	if verr := validation.ValidateStruct(&ev); verr != nil {
//	    respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
//	    return
//	}
//
// Field names in messages are the JSON names of the request body, so a
// client sees "category is required" rather than the Go field name.
package validation
