// Package static serves files from a directory under a URL prefix.
//
// Requested paths are joined with the base directory, cleaned and resolved
// through symlinks before being checked against the canonical base
// directory. Missing files, directories and paths escaping the base all
// produce the same 404 "File not found" response.
package static
