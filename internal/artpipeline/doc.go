// Package artpipeline resolves the custom art applied to each print.
//
// Prepare walks a cache-aware chain: probe the store for an existing
// original, fetch and persist it when missing, optionally upscale it under a
// model-qualified sub-path, and return the best URL available. Every stage
// checks the store before doing work, so rerunning the same card list makes no
// network fetches or upscale calls once the assets exist. Failures degrade to
// an empty URL, which callers treat as "keep the default art".
package artpipeline
