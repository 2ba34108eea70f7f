// Package extract unpacks the data tarball of a .deb into a staging
// directory and promotes it over the live installation.
//
// Promotion is atomic when the kernel can exchange two directories. On
// other systems a two-step rename through a backup directory is used, and
// Recover repairs a run that was killed between the two renames.
package extract
