// Package gitops implements the pipeline's git collaborator on go-git.
//
// The client writes agent-produced files under the repository root only,
// stages and commits them on a working branch, and pushes when a remote is
// configured. On any failure it attempts to leave the working tree on the
// default branch.
package gitops
