// Package manualvariant declares the "Add Manual Variant" dialog: the
// descriptors for a structural variant called outside the pipeline, the
// per-individual copy number group and the payload shaping expected by the
// variant tag endpoint.
package manualvariant
