// Package staging manages scratch directories under paths.staging_dir:
// per-run work directories for thumbnails, annotated images, and other
// intermediate files, plus cleanup of directories left behind by runs that
// did not finish.
package staging
