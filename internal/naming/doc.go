// Package naming turns source file paths into collision-safe output paths.
//
// [CleanStem] strips the configured rename patterns from a filename stem
// and collapses the separator runs the removals leave behind. [Resolver]
// places the cleaned stem either next to the source (same-dir placement) or
// at the mirrored position under the output root, and [SamePath] enforces
// the one hard rule of the package: the resolved output path never
// canonicalizes to the source file itself, even through symlinks or when
// the output does not exist yet.
package naming
