// Package runner implements the live execution unit a compiled graph builds
// for every declared node.  A runner owns nothing shared: the per-run
// context, result cache and admission controllers are handed to every runner
// of the same run so that admission and caching stay scoped per run, not per
// node.  Dependency ordering is enforced here - a runner resolves its wired
// parents to completion before its own handler is admitted.
package runner
